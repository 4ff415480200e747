package display

import (
	"log/slog"

	"github.com/jmylchreest/chatportraits/internal/portrait"
)

// transitionSubs holds an element's transition-end subscribers in
// subscription order.
type transitionSubs struct {
	fns  map[int]func()
	next int
}

func newTransitionSubs() *transitionSubs {
	return &transitionSubs{fns: make(map[int]func())}
}

// add subscribes fn and returns its unsubscribe func.
func (s *transitionSubs) add(fn func()) func() {
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() { delete(s.fns, id) }
}

// reset drops every subscriber.
func (s *transitionSubs) reset() {
	s.fns = make(map[int]func())
}

// signal runs the current subscribers. Subscribers may unsubscribe while
// running. A panicking subscriber is logged and the rest still run.
func (s *transitionSubs) signal(logger *slog.Logger) {
	fns := make([]func(), 0, len(s.fns))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	for _, fn := range fns {
		portrait.Guard(logger, "transition-end", fn)
	}
}
