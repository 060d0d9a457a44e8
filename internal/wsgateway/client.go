package wsgateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
	sendBufferSize = 64

	rateLimitFrames = 30
	rateLimitWindow = 10 * time.Second
)

// Client is one WebSocket connection, holding the frozen-at-upgrade
// (workspace_id, user_id?) identity and the subscribed-channel set, per
// spec §4.3.
type Client struct {
	ID          string
	WorkspaceID string
	UserID      string // empty for unauthenticated-agent-key connections with no user row

	hub  *Hub
	conn *websocket.Conn
	log  *logger.Logger

	send chan events.Event

	mu        sync.Mutex
	subs      map[string]struct{} // empty set == subscribe-to-all
	rateTimes []time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, workspaceID, userID string, log *logger.Logger) *Client {
	return &Client{
		WorkspaceID: workspaceID,
		UserID:      userID,
		hub:         hub,
		conn:        conn,
		log:         log,
		send:        make(chan events.Event, sendBufferSize),
		subs:        make(map[string]struct{}),
	}
}

// WantsChannel reports whether this client should receive a new_message
// event for the given channel: an empty subscription set means
// subscribe-to-all.
func (c *Client) WantsChannel(channelID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return true
	}
	_, ok := c.subs[channelID]
	return ok
}

func (c *Client) subscribe(channelIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range channelIDs {
		c.subs[id] = struct{}{}
	}
}

func (c *Client) unsubscribe(channelIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range channelIDs {
		delete(c.subs, id)
	}
}

// trySend is the non-blocking, drop-on-full send the hub's
// broadcast loop uses; a failure here marks the client dead.
func (c *Client) trySend(ev events.Event) bool {
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// allowFrame enforces the 30-frames-per-10s sliding window (spec §4.3,
// S7). Call once per inbound control frame before acting on it.
func (c *Client) allowFrame() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	cutoff := now.Add(-rateLimitWindow)
	kept := c.rateTimes[:0]
	for _, t := range c.rateTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.rateTimes = kept
	if len(c.rateTimes) >= rateLimitFrames {
		return false
	}
	c.rateTimes = append(c.rateTimes, now)
	return true
}

type inboundFrame struct {
	Type       string   `json:"type"`
	ChannelIDs []string `json:"channel_ids"`
}

// ReadPump reads control frames off the socket until it closes, applying
// the rate limit and dispatching subscribe/unsubscribe/ping.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if !c.allowFrame() {
			c.trySend(events.New(events.TypeError, "", "", events.ErrorData{Message: "rate limit exceeded"}))
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.trySend(events.New(events.TypeError, "", "", events.ErrorData{Message: "malformed frame"}))
			continue
		}

		switch frame.Type {
		case "ping":
			c.trySend(events.New(events.TypePong, "", "", nil))
		case "subscribe":
			c.subscribe(frame.ChannelIDs)
			c.trySend(events.New(events.TypeSubscribed, "", "", events.SubscriptionData{ChannelIDs: frame.ChannelIDs}))
		case "unsubscribe":
			c.unsubscribe(frame.ChannelIDs)
			c.trySend(events.New(events.TypeUnsubscribed, "", "", events.SubscriptionData{ChannelIDs: frame.ChannelIDs}))
		default:
			c.trySend(events.New(events.TypeError, "", "", events.ErrorData{Message: "unknown frame type"}))
		}
	}
}

// WritePump drains the per-client send channel to the socket and sends
// periodic pings; events to this client are delivered in send-call order
// (FIFO), satisfying the per-client ordering guarantee of spec §5.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
