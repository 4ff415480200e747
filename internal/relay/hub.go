package relay

import (
	"context"
	"errors"
	"log/slog"
)

// ErrHubClosed is returned once the hub has shut down.
var ErrHubClosed = errors.New("hub closed")

// outboxSize is how many frames may queue for a slow client before frames to
// it are dropped.
const outboxSize = 32

// Client is one relay connection.
type Client struct {
	ID   string
	Room string
	Echo bool

	out chan []byte
}

// Outbox returns the frames to write to the client. It is closed when the
// client leaves.
func (c *Client) Outbox() <-chan []byte { return c.out }

type hubMsg interface{ isHubMsg() }

type joinMsg struct {
	room, id string
	echo     bool
	reply    chan joinReply
}

type joinReply struct {
	client *Client
	err    error
}

type leaveMsg struct {
	client *Client
}

type broadcastMsg struct {
	from    *Client
	payload []byte
}

type statsMsg struct {
	reply chan map[string]int
}

func (joinMsg) isHubMsg()      {}
func (leaveMsg) isHubMsg()     {}
func (broadcastMsg) isHubMsg() {}
func (statsMsg) isHubMsg()     {}

// Hub fans frames out to every client in the sender's room. All state is
// owned by the hub goroutine.
type Hub struct {
	inbox  chan hubMsg
	rooms  map[string]map[string]*Client
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub starts a hub that runs until parent is cancelled or Close is called.
func NewHub(parent context.Context, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan hubMsg, 64),
		rooms:  make(map[string]map[string]*Client),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.loop()
	return h
}

// Join adds a client to room. A client already registered under the same id
// in room is replaced and its outbox closed; this is how a peer reconnecting
// after a dropped connection takes over from its stale registration.
func (h *Hub) Join(room, id string, echo bool) (*Client, error) {
	reply := make(chan joinReply, 1)
	if !h.send(joinMsg{room: room, id: id, echo: echo, reply: reply}) {
		return nil, ErrHubClosed
	}
	select {
	case r := <-reply:
		return r.client, r.err
	case <-h.done:
		return nil, ErrHubClosed
	}
}

// Leave removes c and closes its outbox.
func (h *Hub) Leave(c *Client) {
	h.send(leaveMsg{client: c})
}

// Broadcast sends payload from c to its room.
func (h *Hub) Broadcast(c *Client, payload []byte) {
	h.send(broadcastMsg{from: c, payload: payload})
}

// Stats returns the number of clients per room.
func (h *Hub) Stats() map[string]int {
	reply := make(chan map[string]int, 1)
	if !h.send(statsMsg{reply: reply}) {
		return map[string]int{}
	}
	select {
	case s := <-reply:
		return s
	case <-h.done:
		return map[string]int{}
	}
}

// Close stops the hub and closes every client outbox.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

func (h *Hub) send(m hubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case joinMsg:
				msg.reply <- h.join(msg)

			case leaveMsg:
				h.leave(msg.client)

			case broadcastMsg:
				h.broadcast(msg.from, msg.payload)

			case statsMsg:
				stats := make(map[string]int, len(h.rooms))
				for room, clients := range h.rooms {
					stats[room] = len(clients)
				}
				msg.reply <- stats
			}
		}
	}
}

func (h *Hub) join(msg joinMsg) joinReply {
	clients := h.rooms[msg.room]
	if clients == nil {
		clients = make(map[string]*Client)
		h.rooms[msg.room] = clients
	}
	if old, exists := clients[msg.id]; exists {
		close(old.out)
		h.logger.Info("replacing stale client", "room", msg.room, "client", msg.id)
	}

	c := &Client{ID: msg.id, Room: msg.room, Echo: msg.echo, out: make(chan []byte, outboxSize)}
	clients[msg.id] = c
	h.logger.Debug("client joined", "room", msg.room, "client", msg.id, "echo", msg.echo, "peers", len(clients))
	return joinReply{client: c}
}

func (h *Hub) leave(c *Client) {
	clients := h.rooms[c.Room]
	if clients[c.ID] != c {
		return
	}
	delete(clients, c.ID)
	close(c.out)
	if len(clients) == 0 {
		delete(h.rooms, c.Room)
	}
	h.logger.Debug("client left", "room", c.Room, "client", c.ID)
}

func (h *Hub) broadcast(from *Client, payload []byte) {
	clients := h.rooms[from.Room]
	if clients[from.ID] != from {
		return
	}
	for id, c := range clients {
		if c == from && !c.Echo {
			continue
		}
		select {
		case c.out <- payload:
		default:
			h.logger.Warn("dropping frame for slow client", "room", c.Room, "client", id)
		}
	}
}

func (h *Hub) shutdown() {
	for _, clients := range h.rooms {
		for _, c := range clients {
			close(c.out)
		}
	}
	clear(h.rooms)
}
