package portrait

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Loop serialises callbacks. No two callbacks posted to the same Loop run
// concurrently, which is what lets the Manager keep its active set without
// locks.
type Loop interface {
	// Post schedules fn to run on the loop.
	Post(fn func())
	// AfterFunc schedules fn to run on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was already stopped.
	Stop() bool
}

// closer is implemented by loops that can report they have stopped.
type closer interface {
	Done() <-chan struct{}
}

// Call runs fn on the loop and waits for it to return.
func Call[T any](ctx context.Context, loop Loop, fn func() T) (T, error) {
	var stopped <-chan struct{}
	if c, ok := loop.(closer); ok {
		stopped = c.Done()
	}

	done := make(chan T, 1)
	loop.Post(func() {
		done <- fn()
	})

	var zero T
	select {
	case v := <-done:
		return v, nil
	case <-stopped:
		return zero, ErrLoopClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Guard runs fn and converts a panic into an error log entry. Loop
// implementations wrap every callback with it so one failing handler cannot
// take the loop down.
func Guard(logger *slog.Logger, what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("callback panicked",
				"callback", what,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// SerialLoop is a Loop backed by a single goroutine. It is used where no GUI
// main loop exists (terminal monitor, headless runs).
type SerialLoop struct {
	logger *slog.Logger
	queue  chan func()
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu      sync.Mutex
	running bool
	stopped bool
}

// NewSerialLoop creates a loop. Call Run to start processing.
func NewSerialLoop(logger *slog.Logger) *SerialLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &SerialLoop{
		logger: logger,
		queue:  make(chan func(), 256),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Run processes callbacks until ctx is cancelled or Stop is called. Run
// returns at once if the loop was already run or stopped.
func (l *SerialLoop) Run(ctx context.Context) {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	defer close(l.doneCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case fn := <-l.queue:
			Guard(l.logger, "serial-loop", fn)
		}
	}
}

// Stop ends Run and waits for it to return. A loop that was never run is
// stopped without waiting.
func (l *SerialLoop) Stop() {
	l.once.Do(func() {
		close(l.stopCh)
		l.mu.Lock()
		l.stopped = true
		running := l.running
		l.mu.Unlock()
		if !running {
			close(l.doneCh)
		}
	})
	<-l.doneCh
}

// Done is closed once Stop has been called.
func (l *SerialLoop) Done() <-chan struct{} {
	return l.stopCh
}

// Post implements Loop. Callbacks posted after Stop are dropped.
func (l *SerialLoop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.stopCh:
	}
}

// AfterFunc implements Loop.
func (l *SerialLoop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &serialTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.fire() {
				fn()
			}
		})
	})
	return t
}

// serialTimer tracks whether the callback was cancelled after time.AfterFunc
// already handed it to the queue.
type serialTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	fired   bool
}

func (t *serialTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.fired = true
	return true
}

func (t *serialTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}
