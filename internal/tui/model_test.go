package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeController struct {
	mu        sync.Mutex
	items     []portrait.ItemInfo
	triggered []int
	dismissed []string
	all       int
	err       error
}

func (f *fakeController) Trigger(_ context.Context, slot int) (portrait.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered = append(f.triggered, slot)
	if f.err != nil {
		return portrait.Event{}, f.err
	}
	return portrait.Event{ID: "new", Lane: portrait.LaneRight}, nil
}

func (f *fakeController) Dismiss(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed = append(f.dismissed, id)
	return f.err == nil, f.err
}

func (f *fakeController) DismissAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all++
	return len(f.items), f.err
}

func (f *fakeController) Active(context.Context) ([]portrait.ItemInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items, nil
}

func testItems() []portrait.ItemInfo {
	return []portrait.ItemInfo{
		{ID: "a", UserID: "u-a", UserName: "Alice", Lane: portrait.LaneLeft, Top: 120, Height: 396, WidthPx: 320, State: portrait.StateSettled, CreatedAt: testNow.Add(-time.Second), ExpiresAt: testNow.Add(3500 * time.Millisecond)},
		{ID: "b", UserID: "u-b", Lane: portrait.LaneLeft, Top: 516, Height: 396, WidthPx: 320, State: portrait.StateDismissing},
		{ID: "c", UserID: "u-c", UserName: "Carol", Lane: portrait.LaneRight, Top: 120, Inset: 40, Height: 396, WidthPx: 320, State: portrait.StateSettled, Dragged: true},
	}
}

func newTestModel(t *testing.T, ctl *fakeController) Model {
	t.Helper()
	m := New(Options{Controller: ctl, Title: "watch"})
	m.now = func() time.Time { return testNow }
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return update(t, m, itemsMsg{items: ctl.items})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_ViewBeforeReady(t *testing.T) {
	m := New(Options{Controller: &fakeController{}})
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_ViewLanes(t *testing.T) {
	m := newTestModel(t, &fakeController{items: testItems()})
	view := m.View()

	assert.Contains(t, view, "watch")
	assert.Contains(t, view, "3 active")
	assert.Contains(t, view, "LEFT")
	assert.Contains(t, view, "RIGHT")
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "u-b", "falls back to user id")
	assert.Contains(t, view, "Carol")
	assert.Contains(t, view, "settled*", "dragged marker")
	assert.Contains(t, view, "y=516")
	assert.Contains(t, view, "4s left")
	assert.Contains(t, view, "leaving")
}

func TestModel_ViewEmptyLane(t *testing.T) {
	m := newTestModel(t, &fakeController{items: testItems()[:1]})
	assert.Contains(t, m.View(), "(empty)")
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel(t, &fakeController{items: testItems()})

	it, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, "a", it.ID)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	it, _ = m.current()
	assert.Equal(t, "b", it.ID)

	// Clamped at the bottom of the lane
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	it, _ = m.current()
	assert.Equal(t, "b", it.ID)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, portrait.LaneRight, m.lane)
	it, _ = m.current()
	assert.Equal(t, "c", it.ID)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestModel_SetItemsKeepsSelection(t *testing.T) {
	ctl := &fakeController{items: testItems()}
	m := newTestModel(t, ctl)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})

	// "a" expired; "b" moves up to index 0 and stays selected.
	m = update(t, m, itemsMsg{items: testItems()[1:]})
	it, ok := m.current()
	require.True(t, ok)
	assert.Equal(t, "b", it.ID)

	m = update(t, m, itemsMsg{items: nil})
	_, ok = m.current()
	assert.False(t, ok)
	assert.Equal(t, 0, m.cursor)
}

func TestModel_Dismiss(t *testing.T) {
	ctl := &fakeController{items: testItems()}
	m := newTestModel(t, ctl)

	_, cmd := press(t, m, runes("d"))
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, statusMsg{text: "Portrait dismissed"}, msg)
	assert.Equal(t, []string{"a"}, ctl.dismissed)
}

func TestModel_DismissError(t *testing.T) {
	ctl := &fakeController{items: testItems(), err: errors.New("boom")}
	m := newTestModel(t, ctl)

	_, cmd := press(t, m, runes("d"))
	msg, ok := cmd().(statusMsg)
	require.True(t, ok)
	assert.True(t, msg.isErr)
	assert.Contains(t, msg.text, "boom")
}

func TestModel_DismissAll(t *testing.T) {
	ctl := &fakeController{items: testItems()}
	m := newTestModel(t, ctl)

	_, cmd := press(t, m, runes("D"))
	assert.Equal(t, statusMsg{text: "Dismissed 3 portraits"}, cmd())
	assert.Equal(t, 1, ctl.all)
}

func TestModel_TriggerSlot(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(t, ctl)

	_, cmd := press(t, m, runes("3"))
	require.NotNil(t, cmd)
	assert.Equal(t, statusMsg{text: "Triggered slot 3 (right)"}, cmd())

	_, cmd = press(t, m, runes("0"))
	cmd()
	assert.Equal(t, []int{3, 0}, ctl.triggered)
}

func TestModel_Detail(t *testing.T) {
	m := newTestModel(t, &fakeController{items: testItems()})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, ModeDetail, m.mode)
	view := m.View()
	assert.Contains(t, view, "Portrait Detail")
	assert.Contains(t, view, "Carol")
	assert.Contains(t, view, "inset 40")
	assert.Contains(t, view, "Dragged")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeLanes, m.mode)
	assert.Nil(t, m.selected)
}

func TestModel_Help(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	m, _ = press(t, m, runes("?"))
	require.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	assert.Contains(t, m.View(), "trigger slot")

	m, _ = press(t, m, runes("?"))
	assert.Equal(t, ModeLanes, m.mode)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, &fakeController{})
	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_StatusLifecycle(t *testing.T) {
	m := newTestModel(t, &fakeController{})

	m = update(t, m, statusMsg{text: "Slot 4: not configured", isErr: true})
	assert.Contains(t, m.View(), "Slot 4: not configured")

	m = update(t, m, clearStatusMsg{})
	assert.NotContains(t, m.View(), "Slot 4")
	assert.Contains(t, m.View(), "quit")
}

func TestModel_Warnings(t *testing.T) {
	warnings := make(chan string, 1)
	m := New(Options{Controller: &fakeController{}, Warnings: warnings})
	warnings <- "Broadcast channel failed"

	assert.Equal(t, warningMsg("Broadcast channel failed"), m.watchForWarnings())
}

func TestModel_Changes(t *testing.T) {
	changes := make(chan struct{}, 1)
	m := New(Options{Controller: &fakeController{}, Changes: changes})
	changes <- struct{}{}
	assert.Equal(t, changedMsg{}, m.watchForChanges())

	close(changes)
	assert.Nil(t, m.watchForChanges())
}

func TestModel_Remaining(t *testing.T) {
	m := New(Options{Controller: &fakeController{}})
	m.now = func() time.Time { return testNow }

	tests := []struct {
		name string
		item portrait.ItemInfo
		want string
	}{
		{"rounds up", portrait.ItemInfo{State: portrait.StateSettled, ExpiresAt: testNow.Add(1200 * time.Millisecond)}, "2s left"},
		{"past", portrait.ItemInfo{State: portrait.StateSettled, ExpiresAt: testNow.Add(-time.Millisecond)}, "expiring"},
		{"dismissing", portrait.ItemInfo{State: portrait.StateDismissing, ExpiresAt: testNow.Add(time.Second)}, "leaving"},
		{"unknown", portrait.ItemInfo{State: portrait.StateSettled}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.remaining(tt.item))
		})
	}
}

func TestBuildKeybindBar_FitsWidth(t *testing.T) {
	m := New(Options{Controller: &fakeController{}})

	narrow := stripANSI(m.buildKeybindBar(10, "lanes"))
	assert.Equal(t, "q quit", narrow)

	wide := stripANSI(m.buildKeybindBar(200, "lanes"))
	assert.True(t, strings.HasPrefix(wide, "q quit  0-9 trigger"))
	assert.Contains(t, wide, "y copy id")
}

// stripANSI removes ANSI escape codes.
func stripANSI(s string) string {
	result := make([]byte, 0, len(s))
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if s[i] == 'm' {
				inEscape = false
			}
			continue
		}
		result = append(result, s[i])
	}
	return string(result)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "anything", truncate("anything", 0))
}
