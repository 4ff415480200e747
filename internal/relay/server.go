package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DefaultRoom is used when a client names no room.
const DefaultRoom = "default"

// maxFrame bounds a single frame read from a client.
const maxFrame = 64 << 10

// pingInterval is how often an idle peer is pinged. A peer that misses a pong
// is dropped so its id is freed for the reconnect.
var pingInterval = 20 * time.Second

// Routes returns the relay's HTTP handler:
//
//	GET /ws?room=R&client=C&echo=true  websocket
//	GET /healthz                       room occupancy as JSON
func Routes(h *Hub, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Get("/healthz", Healthz(h))
	r.Get("/ws", Handler(h, logger))
	return r
}

// Healthz reports the relay is up along with per-room client counts.
func Healthz(h *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"rooms":  h.Stats(),
		})
	}
}

// Handler upgrades a request to a websocket and relays its frames to the
// rest of its room.
func Handler(h *Hub, logger *slog.Logger) http.HandlerFunc {
	interval := pingInterval
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		room := q.Get("room")
		if room == "" {
			room = DefaultRoom
		}
		id := q.Get("client")
		if id == "" {
			id = uuid.NewString()
		}
		echo, _ := strconv.ParseBool(q.Get("echo"))

		// Join before the upgrade so the peer is routable as soon as its
		// handshake completes.
		client, err := h.Join(room, id, echo)
		if err != nil {
			http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
			return
		}
		defer h.Leave(client)

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", "client", id, "error", err)
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(maxFrame)

		log := logger.With("room", room, "client", id)
		log.Info("peer connected", "echo", echo)

		// Writer goroutine
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go func() {
			for frame := range client.Outbox() {
				wctx, wcancel := context.WithTimeout(ctx, 3*time.Second)
				err := conn.Write(wctx, websocket.MessageText, frame)
				wcancel()
				if err != nil {
					cancel()
					return
				}
			}
			// Outbox closed by hub shutdown or a reconnect under this id.
			cancel()
		}()
		go heartbeat(ctx, conn, interval, cancel)

		// Reader loop
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Info("peer disconnected")
				default:
					log.Debug("peer read failed", "error", err)
				}
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			h.Broadcast(client, data)
		}
	}
}

// heartbeat pings conn until ctx ends, cancelling when a ping fails.
func heartbeat(ctx context.Context, conn *websocket.Conn, interval time.Duration, cancel context.CancelFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, pcancel := context.WithTimeout(ctx, interval/2)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}
