// Package opencode is a client for the OpenCode-style external agent
// runtime SDK: a per-agent HTTP session server that TalkTo's invocation
// engine dispatches prompts to.
package opencode

import "time"

// Session is one session on an external runtime server.
type Session struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Directory   string    `json:"directory,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// PartKind enumerates the kinds of content a runtime's response can
// contain; the invocation engine only ever retains "text" parts.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindTool PartKind = "tool"
	PartKindStep PartKind = "step"
)

// Part is one unit of a prompt response. Ignored marks parts the runtime
// produced but flagged as not meant for the final transcript (e.g.
// internal reasoning or redacted tool output) — the invocation engine's
// text-extraction step (spec §4.4 step 6) must skip these.
type Part struct {
	Kind    PartKind `json:"type"`
	Text    string   `json:"text,omitempty"`
	Ignored bool     `json:"ignored,omitempty"`
}

// PromptResponse is the result of a promptSession call: an ordered
// sequence of parts.
type PromptResponse struct {
	SessionID string `json:"session_id"`
	Parts     []Part `json:"parts"`
}

// HealthStatus is the result of a health probe against a runtime server.
type HealthStatus struct {
	Healthy bool
	Error   string
}
