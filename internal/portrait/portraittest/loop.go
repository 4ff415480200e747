// Package portraittest provides in-memory fakes for exercising the portrait
// core without a display.
package portraittest

import (
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// Loop is a portrait.Loop driven by hand. Posted callbacks run on Drain and
// timers fire on Advance, both on the calling goroutine.
type Loop struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []*timer
	seq    int
}

// NewLoop creates a loop whose clock starts at start.
func NewLoop(start time.Time) *Loop {
	return &Loop{now: start}
}

// Now returns the loop's clock.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// Post implements portrait.Loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, fn)
}

// AfterFunc implements portrait.Loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) portrait.Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	t := &timer{loop: l, at: l.now.Add(d), seq: l.seq, fn: fn}
	l.timers = append(l.timers, t)
	return t
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// NextDeadline returns when the earliest pending timer fires.
func (l *Loop) NextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	next := l.timers[0].at
	for _, t := range l.timers[1:] {
		if t.at.Before(next) {
			next = t.at
		}
	}
	return next, true
}

// Drain runs queued callbacks, including ones they post, until the queue is
// empty.
func (l *Loop) Drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order
// and draining the queue after each.
func (l *Loop) Advance(d time.Duration) {
	l.mu.Lock()
	target := l.now.Add(d)
	l.mu.Unlock()

	l.Drain()
	for {
		l.mu.Lock()
		due := slices.DeleteFunc(slices.Clone(l.timers), func(t *timer) bool {
			return t.at.After(target)
		})
		if len(due) == 0 {
			l.now = target
			l.mu.Unlock()
			return
		}
		slices.SortFunc(due, func(a, b *timer) int {
			if c := a.at.Compare(b.at); c != 0 {
				return c
			}
			return a.seq - b.seq
		})
		t := due[0]
		l.now = t.at
		l.removeLocked(t)
		l.mu.Unlock()

		t.fn()
		l.Drain()
	}
}

func (l *Loop) removeLocked(t *timer) bool {
	i := slices.Index(l.timers, t)
	if i < 0 {
		return false
	}
	l.timers = slices.Delete(l.timers, i, i+1)
	return true
}

type timer struct {
	loop *Loop
	at   time.Time
	seq  int
	fn   func()
}

func (t *timer) Stop() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	return t.loop.removeLocked(t)
}
