package channel

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/chatportraits/internal/config"
	"github.com/jmylchreest/chatportraits/internal/relay"
)

func TestOpen(t *testing.T) {
	cfg := config.DefaultDaemonConfig().Channel

	ch, err := Open(cfg, "u1", nil)
	require.NoError(t, err)
	ws, ok := ch.(*WebSocket)
	require.True(t, ok)
	assert.Contains(t, ws.Endpoint(), "room=default")
	assert.Contains(t, ws.Endpoint(), "client=u1")

	cfg.Backend = string(config.BackendRedis)
	ch, err = Open(cfg, "u1", nil)
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, ch)
	require.NoError(t, ch.Close())

	cfg.Backend = string(config.BackendNone)
	ch, err = Open(cfg, "u1", nil)
	require.NoError(t, err)
	assert.IsType(t, &Nop{}, ch)

	cfg.Backend = "carrier-pigeon"
	_, err = Open(cfg, "u1", nil)
	assert.Error(t, err)
}

func TestNewWebSocket_InvalidURL(t *testing.T) {
	_, err := NewWebSocket("ftp://example.com", "r", "", nil)
	assert.Error(t, err)
	_, err = NewWebSocket("://bad", "r", "", nil)
	assert.Error(t, err)
}

func TestNewRedis_RequiresAddrAndChannel(t *testing.T) {
	_, err := NewRedis("", "c", nil)
	assert.Error(t, err)
	_, err = NewRedis("127.0.0.1:6379", "", nil)
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	n := NewNop()
	assert.NoError(t, n.Publish(context.Background(), []byte("x")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, n.Run(ctx, func([]byte) {}), context.DeadlineExceeded)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.ErrorIs(t, n.Publish(context.Background(), []byte("x")), ErrClosed)
	assert.NoError(t, n.Run(context.Background(), func([]byte) {}))
}

func TestBackoff(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 500*time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, b.next())
	assert.Equal(t, 200*time.Millisecond, b.next())
	assert.Equal(t, 400*time.Millisecond, b.next())
	assert.Equal(t, 500*time.Millisecond, b.next())
	assert.Equal(t, 500*time.Millisecond, b.next())
	b.reset()
	assert.Equal(t, 100*time.Millisecond, b.next())
}

func startRelay(t *testing.T) string {
	t.Helper()
	hub := relay.NewHub(context.Background(), nil)
	srv := httptest.NewServer(relay.Routes(hub, nil))
	t.Cleanup(func() {
		srv.Close()
		hub.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func runChannel(t *testing.T, ws *WebSocket) <-chan []byte {
	t.Helper()
	frames := make(chan []byte, 8)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Run(ctx, func(p []byte) { frames <- p }) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	readyCtx, readyCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readyCancel()
	require.NoError(t, ws.WaitReady(readyCtx))
	return frames
}

func TestWebSocket_RoundTripThroughRelay(t *testing.T) {
	url := startRelay(t)

	a, err := NewWebSocket(url, "room", "a", nil)
	require.NoError(t, err)
	b, err := NewWebSocket(url, "room", "b", nil)
	require.NoError(t, err)

	framesA := runChannel(t, a)
	framesB := runChannel(t, b)

	payload := []byte(`{"id":"a-1-0-xxxxxxxx"}`)
	require.NoError(t, a.Publish(context.Background(), payload))

	select {
	case got := <-framesB:
		assert.Equal(t, payload, got)
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}

	select {
	case got := <-framesA:
		t.Fatalf("sender received its own frame: %s", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebSocket_PublishBeforeConnect(t *testing.T) {
	ws, err := NewWebSocket("ws://127.0.0.1:1/ws", "r", "a", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, ws.Publish(context.Background(), []byte("x")), ErrNotConnected)

	require.NoError(t, ws.Close())
	assert.ErrorIs(t, ws.Publish(context.Background(), []byte("x")), ErrClosed)
}

func TestWebSocket_CloseStopsRun(t *testing.T) {
	ws, err := NewWebSocket("ws://127.0.0.1:1/ws", "r", "a", nil)
	require.NoError(t, err)
	ws.minBackoff = time.Millisecond
	ws.maxBackoff = 5 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- ws.Run(context.Background(), func([]byte) {}) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ws.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
