// Package wsgateway is the WebSocket fan-out substrate of spec §4.3: an
// in-memory client map with workspace- and channel-scoped broadcast and
// per-client rate limiting.
package wsgateway

import (
	"sync"

	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/events"
)

// Hub owns the client map. All mutation happens on the Run goroutine;
// Broadcast/Accept/Remove hand work to it over channels. Readers take a
// short read lock to snapshot their targets, since BroadcastToChannel
// reads the map from the caller's goroutine.
type Hub struct {
	log *logger.Logger

	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan events.Event

	mu           sync.RWMutex
	nextClientID uint64
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan events.Event, 256),
	}
}

// Run drives the hub's single owning goroutine until ctx/stop is closed by
// the caller closing the done channel.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.ID] = c
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.ID]; ok {
				delete(h.clients, c.ID)
				close(c.send)
			}
			h.mu.Unlock()
		case ev := <-h.broadcast:
			h.dispatch(ev)
		}
	}
}

// Accept assigns a monotonic client id and registers the client, per
// spec §4.3 accept(socket, workspace_id, user_id?) -> client_id.
func (h *Hub) Accept(c *Client) {
	h.mu.Lock()
	h.nextClientID++
	c.ID = idFor(h.nextClientID)
	h.mu.Unlock()
	h.register <- c
}

func (h *Hub) Remove(c *Client) {
	h.unregister <- c
}

// Broadcast sends an event to every client in the event's workspace (or
// every client if WorkspaceID is empty), applying the new_message
// channel-subscription filter described in spec §4.3.
func (h *Hub) Broadcast(ev events.Event) {
	h.broadcast <- ev
}

func (h *Hub) dispatch(ev events.Event) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if ev.WorkspaceID != "" && c.WorkspaceID != ev.WorkspaceID {
			continue
		}
		if ev.Type == events.TypeNewMessage && !c.WantsChannel(ev.ChannelID) {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dead []*Client
	for _, c := range targets {
		if !c.trySend(ev) {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.Remove(c)
	}
}

// BroadcastToChannel is used for narrow echoes, optionally excluding one
// client (e.g. the sender's own connection).
func (h *Hub) BroadcastToChannel(channelID, workspaceID string, ev events.Event, exclude *Client) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c == exclude {
			continue
		}
		if workspaceID != "" && c.WorkspaceID != workspaceID {
			continue
		}
		if !c.WantsChannel(channelID) {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	var dead []*Client
	for _, c := range targets {
		if !c.trySend(ev) {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.Remove(c)
	}
}

func idFor(n uint64) string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	if n == 0 {
		return "0"
	}
	var buf [16]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = digits[n%36]
		n /= 36
	}
	return string(buf[i:])
}
