// Package events defines the wire shape of everything the broadcaster
// fans out over WebSocket, per spec §4.3.
package events

// Type enumerates the event types emitted by the hub.
type Type string

const (
	TypeNewMessage     Type = "new_message"
	TypeMessageEdited  Type = "message_edited"
	TypeMessageDeleted Type = "message_deleted"
	TypeReaction       Type = "reaction"
	TypeAgentStatus    Type = "agent_status"
	TypeAgentTyping    Type = "agent_typing"
	TypeAgentStreaming Type = "agent_streaming"
	TypeChannelCreated Type = "channel_created"
	TypeFeatureUpdate  Type = "feature_update"
	TypeSubscribed     Type = "subscribed"
	TypeUnsubscribed   Type = "unsubscribed"
	TypePong           Type = "pong"
	TypeError          Type = "error"
)

// Event is the {type, data} envelope broadcast to WebSocket clients.
type Event struct {
	Type Type        `json:"type"`
	Data interface{} `json:"data"`

	// WorkspaceID and ChannelID are broadcast routing hints, not part of
	// the wire payload seen by clients (they are consumed by the hub's
	// fan-out filter, not re-serialized into Data).
	WorkspaceID string `json:"-"`
	ChannelID   string `json:"-"`
}

func New(typ Type, workspaceID, channelID string, data interface{}) Event {
	return Event{Type: typ, Data: data, WorkspaceID: workspaceID, ChannelID: channelID}
}

type AgentTypingData struct {
	AgentID  string `json:"agent_id"`
	IsTyping bool   `json:"is_typing"`
	Error    string `json:"error,omitempty"`
}

type AgentStatusData struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
	IsGhost bool   `json:"is_ghost"`
}

type ErrorData struct {
	Message string `json:"message"`
}

type SubscriptionData struct {
	ChannelIDs []string `json:"channel_ids"`
}
