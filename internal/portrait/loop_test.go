package portrait

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSerialLoop(t *testing.T) *SerialLoop {
	t.Helper()
	l := NewSerialLoop(nil)
	go l.Run(context.Background())
	t.Cleanup(l.Stop)
	return l
}

func TestSerialLoop_Call(t *testing.T) {
	l := startSerialLoop(t)

	v, err := Call(context.Background(), l, func() int { return 42 })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSerialLoop_RunsInOrder(t *testing.T) {
	l := startSerialLoop(t)

	var got []int
	for i := range 5 {
		l.Post(func() { got = append(got, i) })
	}
	_, err := Call(context.Background(), l, func() struct{} { return struct{}{} })
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestSerialLoop_AfterFunc(t *testing.T) {
	l := startSerialLoop(t)

	fired := make(chan struct{})
	l.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestSerialLoop_StoppedTimerDoesNotFire(t *testing.T) {
	l := startSerialLoop(t)

	var fired atomic.Bool
	timer := l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	time.Sleep(60 * time.Millisecond)
	_, err := Call(context.Background(), l, func() bool { return true })
	require.NoError(t, err)
	assert.False(t, fired.Load())
}

func TestSerialLoop_SurvivesPanic(t *testing.T) {
	l := startSerialLoop(t)

	l.Post(func() { panic("boom") })
	v, err := Call(context.Background(), l, func() string { return "alive" })
	require.NoError(t, err)
	assert.Equal(t, "alive", v)
}

func TestCall_AfterStop(t *testing.T) {
	l := NewSerialLoop(nil)
	go l.Run(context.Background())
	l.Stop()

	_, err := Call(context.Background(), l, func() int { return 1 })
	assert.ErrorIs(t, err, ErrLoopClosed)
}

func TestSerialLoop_StopWithoutRun(t *testing.T) {
	l := NewSerialLoop(nil)

	stopped := make(chan struct{})
	go func() {
		l.Stop()
		l.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a loop that never ran")
	}

	// Run after Stop returns immediately.
	ran := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(ran)
	}()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	_, err := Call(context.Background(), l, func() int { return 1 })
	assert.ErrorIs(t, err, ErrLoopClosed)
}

func TestCall_ContextCancelled(t *testing.T) {
	l := NewSerialLoop(nil) // never run

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Call(ctx, l, func() int { return 1 })
	assert.ErrorIs(t, err, context.Canceled)
}
