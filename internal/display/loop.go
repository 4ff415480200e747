package display

import (
	"log/slog"
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// GLibLoop is a portrait.Loop backed by the GTK main loop.
type GLibLoop struct {
	logger *slog.Logger
}

// NewGLibLoop creates a loop that dispatches through the default main context.
func NewGLibLoop(logger *slog.Logger) *GLibLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &GLibLoop{logger: logger}
}

// Post implements portrait.Loop.
func (l *GLibLoop) Post(fn func()) {
	glib.IdleAdd(func() {
		portrait.Guard(l.logger, "glib-idle", fn)
	})
}

// AfterFunc implements portrait.Loop.
func (l *GLibLoop) AfterFunc(d time.Duration, fn func()) portrait.Timer {
	t := &glibTimer{}
	ms := uint(max(d.Milliseconds(), 0))
	t.handle = glib.TimeoutAdd(ms, func() bool {
		if t.fire() {
			portrait.Guard(l.logger, "glib-timeout", fn)
		}
		return false // one-shot
	})
	return t
}

type glibTimer struct {
	mu     sync.Mutex
	handle glib.SourceHandle
	done   bool
}

func (t *glibTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (t *glibTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	glib.SourceRemove(t.handle)
	return true
}
