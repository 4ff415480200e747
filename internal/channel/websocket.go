package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// maxFrame bounds a single received frame.
const maxFrame = 64 << 10

// WebSocket is a channel backed by a relay websocket connection. Run keeps the
// connection up, reconnecting with exponential backoff.
type WebSocket struct {
	endpoint string
	logger   *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	ready  chan struct{} // closed while conn is live
	closed bool
	done   chan struct{}

	minBackoff, maxBackoff time.Duration
}

// NewWebSocket creates a websocket channel for room on the relay at rawURL.
// clientID identifies this peer to the relay; empty lets the relay pick one.
func NewWebSocket(rawURL, room, clientID string, logger *slog.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}

	q := u.Query()
	if room != "" {
		q.Set("room", room)
	}
	if clientID != "" {
		q.Set("client", clientID)
	}
	u.RawQuery = q.Encode()

	return &WebSocket{
		endpoint:   u.String(),
		logger:     logger.With("backend", "websocket"),
		ready:      make(chan struct{}),
		done:       make(chan struct{}),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}, nil
}

// Endpoint returns the URL dialled, including the room and client query.
func (w *WebSocket) Endpoint() string {
	return w.endpoint
}

// WaitReady blocks until a connection is live.
func (w *WebSocket) WaitReady(ctx context.Context) error {
	w.mu.Lock()
	ready := w.ready
	w.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-w.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish implements Channel.
func (w *WebSocket) Publish(ctx context.Context, payload []byte) error {
	w.mu.Lock()
	conn, closed := w.conn, w.closed
	w.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if conn == nil {
		return ErrNotConnected
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Run implements Channel.
func (w *WebSocket) Run(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	bo := newBackoff(w.minBackoff, w.maxBackoff)
	for {
		err := w.session(ctx, h, bo)
		if ctx.Err() != nil {
			if w.isClosed() {
				return nil
			}
			return ctx.Err()
		}

		delay := bo.next()
		w.logger.Warn("relay connection lost, reconnecting", "error", err, "retry_in", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			if w.isClosed() {
				return nil
			}
			return ctx.Err()
		}
	}
}

// session dials the relay and reads frames until the connection fails.
func (w *WebSocket) session(ctx context.Context, h Handler, bo *backoff) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, w.endpoint, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial relay: %w", err)
	}
	conn.SetReadLimit(maxFrame)

	w.setConn(conn)
	defer w.clearConn(conn)
	bo.reset()
	w.logger.Info("connected to relay", "url", w.endpoint)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return errors.New("relay closed the connection")
			}
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		h(data)
	}
}

func (w *WebSocket) setConn(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn = conn
	close(w.ready)
}

func (w *WebSocket) clearConn(conn *websocket.Conn) {
	w.mu.Lock()
	if w.conn == conn {
		w.conn = nil
		w.ready = make(chan struct{})
	}
	w.mu.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func (w *WebSocket) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close implements Channel.
func (w *WebSocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return nil
}
