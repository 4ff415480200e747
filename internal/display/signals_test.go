package display

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionSubs_SignalInOrder(t *testing.T) {
	subs := newTransitionSubs()
	var calls []string
	subs.add(func() { calls = append(calls, "first") })
	subs.add(func() { calls = append(calls, "second") })

	subs.signal(nil)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestTransitionSubs_Unsubscribe(t *testing.T) {
	subs := newTransitionSubs()
	var n int
	var unsubscribe func()
	unsubscribe = subs.add(func() {
		n++
		unsubscribe()
	})

	subs.signal(nil)
	subs.signal(nil)
	assert.Equal(t, 1, n)
}

func TestTransitionSubs_PanicDoesNotEscape(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	subs := newTransitionSubs()
	var after bool
	subs.add(func() { panic("observer failed") })
	subs.add(func() { after = true })

	assert.NotPanics(t, func() { subs.signal(logger) })
	assert.True(t, after)
}

func TestTransitionSubs_Reset(t *testing.T) {
	subs := newTransitionSubs()
	var n int
	subs.add(func() { n++ })
	subs.reset()

	subs.signal(nil)
	assert.Zero(t, n)
}
