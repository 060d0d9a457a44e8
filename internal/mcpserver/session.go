package mcpserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionIdleWindow is the implementer's-choice idle window past which
// Registry.Sweep discards a session with no re-use, per spec §4.2 ("not
// observable to the protocol"). Sweep runs only when called; the server
// does not schedule it.
const sessionIdleWindow = 30 * time.Minute

// SessionState is the small amount of per-MCP-session state spec §4.2
// describes: the registered-agent binding and protocol framing
// bookkeeping. One instance exists per mcp-session-id, never shared.
type SessionState struct {
	ID          string
	WorkspaceID string

	mu               sync.Mutex
	RegisteredAgentID *string
	lastUsed         time.Time
}

func (s *SessionState) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *SessionState) registeredAgentID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RegisteredAgentID == nil {
		return "", false
	}
	return *s.RegisteredAgentID, true
}

func (s *SessionState) setRegisteredAgentID(id string) {
	s.mu.Lock()
	s.RegisteredAgentID = &id
	s.mu.Unlock()
}

// Registry holds every live session, keyed by mcp-session-id. Allocating
// a fresh *SessionState per id — rather than sharing one JSON-RPC server
// instance across connections — is the fix spec §9 describes for the
// "already connected to a transport" failure mode.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*SessionState
}

func NewRegistry() *Registry {
	r := &Registry{sessions: make(map[string]*SessionState)}
	return r
}

// New allocates a fresh session bound to workspaceID, per spec §4.2's
// initialize handshake.
func (r *Registry) New(workspaceID string) *SessionState {
	s := &SessionState{ID: uuid.NewString(), WorkspaceID: workspaceID, lastUsed: time.Now()}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*SessionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Sweep evicts sessions idle past sessionIdleWindow. Not required for
// protocol correctness — purely a memory-bound for long-running hubs.
func (r *Registry) Sweep() {
	cutoff := time.Now().Add(-sessionIdleWindow)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		s.mu.Lock()
		stale := s.lastUsed.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(r.sessions, id)
		}
	}
}
