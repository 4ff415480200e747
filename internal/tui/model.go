// Package tui provides the BubbleTea lane monitor behind `portrait watch`.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/chatportraits/internal/adapter/output"
	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// callTimeout bounds each request to the controller.
const callTimeout = 2 * time.Second

// Controller is the portrait control surface the monitor drives.
// portrait.Coordinator implements it.
type Controller interface {
	Trigger(ctx context.Context, slot int) (portrait.Event, error)
	Dismiss(ctx context.Context, id string) (bool, error)
	DismissAll(ctx context.Context) (int, error)
	Active(ctx context.Context) ([]portrait.ItemInfo, error)
}

// Mode represents the current UI mode.
type Mode int

const (
	ModeLanes Mode = iota
	ModeDetail
	ModeHelp
)

// Model is the lane monitor model.
type Model struct {
	ctl      Controller
	changes  <-chan struct{}
	warnings <-chan string
	title    string

	// Current mode
	mode Mode

	// Components
	viewport viewport.Model
	help     help.Model

	// State
	items    []portrait.ItemInfo
	lane     portrait.Lane
	cursor   int
	selected *portrait.ItemInfo
	width    int
	height   int
	ready    bool
	now      func() time.Time

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool
}

// Options configures the monitor model.
type Options struct {
	Controller Controller
	Changes    <-chan struct{} // active set changed; nil = poll only
	Warnings   <-chan string   // warnings to show in the status bar
	Title      string
}

// New creates a new lane monitor model.
func New(opts Options) Model {
	title := opts.Title
	if title == "" {
		title = "Portraits"
	}
	return Model{
		ctl:      opts.Controller,
		changes:  opts.Changes,
		warnings: opts.Warnings,
		title:    title,
		mode:     ModeLanes,
		help:     help.New(),
		lane:     portrait.LaneLeft,
		now:      time.Now,
		keys:     DefaultKeyMap(),
	}
}

type itemsMsg struct {
	items []portrait.ItemInfo
	err   error
}

type changedMsg struct{}

type warningMsg string

type tickMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadItems,
		m.watchForChanges,
		m.watchForWarnings,
		tick(),
	)
}

// loadItems fetches the active set from the controller.
func (m Model) loadItems() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	items, err := m.ctl.Active(ctx)
	return itemsMsg{items: items, err: err}
}

// watchForChanges waits for the active set to change.
func (m Model) watchForChanges() tea.Msg {
	if m.changes == nil {
		return nil
	}
	if _, ok := <-m.changes; !ok {
		return nil
	}
	return changedMsg{}
}

// watchForWarnings waits for the next warning.
func (m Model) watchForWarnings() tea.Msg {
	if m.warnings == nil {
		return nil
	}
	w, ok := <-m.warnings
	if !ok {
		return nil
	}
	return warningMsg(w)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport = viewport.New(msg.Width, max(msg.Height-4, 1))
		m.viewport.YPosition = 2
		m.help.Width = msg.Width
		return m, nil

	case itemsMsg:
		if msg.err != nil {
			return m, status("Refresh failed: "+msg.err.Error(), true)
		}
		m.setItems(msg.items)
		return m, nil

	case changedMsg:
		return m, tea.Batch(m.loadItems, m.watchForChanges)

	case warningMsg:
		return m, tea.Batch(status(string(msg), true), m.watchForWarnings)

	case tickMsg:
		// Ages and countdowns move even when nothing else does.
		return m, tea.Batch(m.loadItems, tick())

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	if m.mode == ModeDetail {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// setItems replaces the snapshot, keeping the cursor on the same portrait
// where it still exists.
func (m *Model) setItems(items []portrait.ItemInfo) {
	var keep string
	if it, ok := m.current(); ok {
		keep = it.ID
	}
	m.items = items

	lane := m.laneItems(m.lane)
	m.cursor = min(m.cursor, max(len(lane)-1, 0))
	for i, it := range lane {
		if it.ID == keep {
			m.cursor = i
			break
		}
	}

	if m.selected != nil {
		for i := range items {
			if items[i].ID == m.selected.ID {
				m.selected = &items[i]
				m.viewport.SetContent(m.renderDetail(items[i]))
				return
			}
		}
	}
}

// laneItems returns the items in lane, top first.
func (m Model) laneItems(lane portrait.Lane) []portrait.ItemInfo {
	var out []portrait.ItemInfo
	for _, it := range m.items {
		if it.Lane == lane {
			out = append(out, it)
		}
	}
	return out
}

// current returns the portrait under the cursor.
func (m Model) current() (portrait.ItemInfo, bool) {
	lane := m.laneItems(m.lane)
	if m.cursor < 0 || m.cursor >= len(lane) {
		return portrait.ItemInfo{}, false
	}
	return lane[m.cursor], true
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeLanes
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	case key.Matches(msg, m.keys.Trigger):
		return m, m.trigger(int(msg.String()[0] - '0'))
	}

	switch m.mode {
	case ModeLanes:
		return m.handleLaneKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeLanes
		}
		return m, nil
	}

	return m, nil
}

// handleLaneKey handles keys in the lane view.
func (m Model) handleLaneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.laneItems(m.lane))-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchLane):
		if m.lane == portrait.LaneLeft {
			m.lane = portrait.LaneRight
		} else {
			m.lane = portrait.LaneLeft
		}
		m.cursor = min(m.cursor, max(len(m.laneItems(m.lane))-1, 0))
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if it, ok := m.current(); ok {
			m.selected = &it
			m.mode = ModeDetail
			m.viewport.SetContent(m.renderDetail(it))
			m.viewport.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if it, ok := m.current(); ok {
			return m, m.dismiss(it.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.DismissAll):
		return m, m.dismissAll()

	case key.Matches(msg, m.keys.CopyID):
		if it, ok := m.current(); ok {
			return m, copyToClipboard(it.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAllJSON):
		return m, m.copyAll(output.FormatJSON)

	case key.Matches(msg, m.keys.CopyAllYAML):
		return m, m.copyAll(output.FormatYAML)

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadItems
	}

	return m, nil
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeLanes
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if m.selected != nil {
			return m, m.dismiss(m.selected.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyID):
		if m.selected != nil {
			return m, copyToClipboard(m.selected.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) trigger(slot int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		ev, err := m.ctl.Trigger(ctx, slot)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Slot %d: %v", slot, err), isErr: true}
		}
		return statusMsg{text: fmt.Sprintf("Triggered slot %d (%s)", slot, ev.Lane)}
	}
}

func (m Model) dismiss(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		ok, err := m.ctl.Dismiss(ctx, id)
		switch {
		case err != nil:
			return statusMsg{text: "Dismiss failed: " + err.Error(), isErr: true}
		case !ok:
			return statusMsg{text: "Already dismissing"}
		default:
			return statusMsg{text: "Portrait dismissed"}
		}
	}
}

func (m Model) dismissAll() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		n, err := m.ctl.DismissAll(ctx)
		if err != nil {
			return statusMsg{text: "Dismiss failed: " + err.Error(), isErr: true}
		}
		return statusMsg{text: fmt.Sprintf("Dismissed %d portraits", n)}
	}
}

// copyAll copies every active portrait in the given format.
func (m Model) copyAll(format output.FormatType) tea.Cmd {
	var buf bytes.Buffer
	if err := output.NewFormatter(format, output.FormatterOptions{}).Format(&buf, m.items); err != nil {
		return status("Failed to format: "+err.Error(), true)
	}
	return copyToClipboard(buf.String())
}

// copyToClipboard copies text to the system clipboard.
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text)}
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	laneStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	activeLane    = laneStyle.Foreground(lipgloss.Color("10"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	columnStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8"))
)

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeLanes:
		return m.viewLanes()
	case ModeDetail:
		return m.viewDetail()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewLanes() string {
	header := titleStyle.Render(m.title) + " " +
		labelStyle.Render(fmt.Sprintf("%d active", len(m.items)))

	colWidth := max((m.width-4)/2-2, 20)
	left := m.renderLane(portrait.LaneLeft, colWidth)
	right := m.renderLane(portrait.LaneRight, colWidth)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return header + "\n" + body + "\n" + m.footer("lanes")
}

// renderLane renders one lane column, items in packing order.
func (m Model) renderLane(lane portrait.Lane, width int) string {
	title := laneStyle.Render(strings.ToUpper(string(lane)))
	if lane == m.lane {
		title = activeLane.Render(strings.ToUpper(string(lane)))
	}

	lines := []string{title}
	items := m.laneItems(lane)
	if len(items) == 0 {
		lines = append(lines, dimStyle.Render("  (empty)"))
	}
	for i, it := range items {
		selected := lane == m.lane && i == m.cursor
		lines = append(lines, m.renderItem(it, selected, width)...)
	}

	return columnStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// renderItem renders a portrait as a name line and a geometry line.
func (m Model) renderItem(it portrait.ItemInfo, selected bool, width int) []string {
	marker := "  "
	nameStyle := lipgloss.NewStyle()
	if selected {
		marker = "▸ "
		nameStyle = selectedStyle
	}

	name := displayName(it)
	state := it.State.String()
	if it.Dragged {
		state += "*"
	}
	first := marker + nameStyle.Render(truncate(name, width-len(state)-4)) + " " + dimStyle.Render(state)
	second := "  " + dimStyle.Render(fmt.Sprintf("y=%d x=%d h=%d  %s", it.Top, it.Inset, it.Height, m.remaining(it)))
	return []string{first, second}
}

// remaining describes the time left before the portrait is dismissed.
func (m Model) remaining(it portrait.ItemInfo) string {
	if it.State >= portrait.StateDismissing {
		return "leaving"
	}
	if it.ExpiresAt.IsZero() {
		return ""
	}
	left := it.ExpiresAt.Sub(m.now())
	if left <= 0 {
		return "expiring"
	}
	return fmt.Sprintf("%ds left", int(math.Ceil(left.Seconds())))
}

// renderDetail renders the detail view for a portrait.
func (m Model) renderDetail(it portrait.ItemInfo) string {
	var s string

	s += titleStyle.Render(displayName(it)) + "\n\n"

	s += labelStyle.Render("ID: ") + it.ID + "\n"
	s += labelStyle.Render("User: ") + it.UserID + "\n"
	s += labelStyle.Render("Lane: ") + string(it.Lane) + "\n"
	s += labelStyle.Render("State: ") + it.State.String() + "\n"
	s += labelStyle.Render("Image: ") + it.ImageRef + "\n"
	s += labelStyle.Render("Geometry: ") + fmt.Sprintf("top %d, inset %d, %dx%d", it.Top, it.Inset, it.WidthPx, it.Height) + "\n"
	if it.Dragged {
		s += labelStyle.Render("Dragged: ") + "yes\n"
	}
	if !it.CreatedAt.IsZero() {
		s += labelStyle.Render("Shown: ") + humanize.RelTime(it.CreatedAt, m.now(), "ago", "from now") + "\n"
	}
	if r := m.remaining(it); r != "" {
		s += labelStyle.Render("Expires: ") + r + "\n"
	}

	return s
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render("Portrait Detail")
	return header + "\n" + m.viewport.View() + "\n" + m.footer("detail")
}

func (m Model) viewHelp() string {
	s := titleStyle.MarginBottom(1).Render("Keyboard Shortcuts") + "\n\n"
	s += m.help.FullHelpView(m.keys.FullHelp())
	s += "\n\n" + dimStyle.Render("Press ? or esc to return")
	return s
}

// footer shows the status message, or the key bar when there is none.
func (m Model) footer(mode string) string {
	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		return style.Render(m.statusMsg)
	}
	return m.buildKeybindBar(m.width, mode)
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
// mode determines which keybinds are shown: "lanes" or "detail".
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind

	switch mode {
	case "lanes":
		binds = []keybind{
			{"q", "quit", 1},
			{"0-9", "trigger", 2},
			{"d", "dismiss", 3},
			{"tab", "lane", 4},
			{"enter", "view", 5},
			{"?", "help", 6},
			{"D", "all", 7},
			{"y", "copy id", 8},
		}
	case "detail":
		binds = []keybind{
			{"q", "quit", 1},
			{"esc", "back", 2},
			{"d", "dismiss", 3},
			{"y", "copy id", 4},
		}
	}

	// Build the bar, adding keybinds until we run out of space
	const separator = "  "
	result := ""
	plainLen := 0
	for _, b := range binds {
		plainItem := b.key + " " + b.desc
		testLen := plainLen + len(plainItem)
		if result != "" {
			testLen += len(separator)
		}
		if width > 0 && testLen > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += keyStyle.Render(b.key) + " " + b.desc
		plainLen = testLen
	}

	return style.Render(result)
}

// displayName prefers the user name and falls back to the user id.
func displayName(it portrait.ItemInfo) string {
	if it.UserName != "" {
		return it.UserName
	}
	return it.UserID
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return s[:maxLen]
	}
	return s[:maxLen-1] + "…"
}

// RunOptions configures the TUI.
type RunOptions struct {
	Options
	AltScreen bool
}

// Run starts the TUI and blocks until the user quits.
func Run(opts RunOptions) error {
	var progOpts []tea.ProgramOption
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	_, err := tea.NewProgram(New(opts.Options), progOpts...).Run()
	return err
}
