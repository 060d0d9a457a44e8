// Package invocation implements the agent-invocation engine of spec §4.4:
// resolving an addressed agent's external session, dispatching a prompt,
// and posting the response back into the channel.
package invocation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/discovery"
	"github.com/hyperslack/talkto/internal/events"
	"github.com/hyperslack/talkto/internal/opencode"
	"github.com/hyperslack/talkto/internal/store"
)

// MaxChainDepth caps agent-authored messages from re-triggering further
// invocations, per spec §4.4 "Reentrancy cap".
const MaxChainDepth = 2

// HistoryMin/HistoryMax bound the channel history window prepended to an
// @-mention prompt (spec §4.4 step 4: "last 5-10 messages").
const (
	HistoryMin = 5
	HistoryMax = 10
)

// Broadcaster is the subset of the WebSocket hub the engine needs; kept
// as an interface so tests can substitute a recorder.
type Broadcaster interface {
	Broadcast(events.Event)
}

// Engine owns the in-memory invocation-session cache described in spec
// §5 ("Invocation-session cache … a per-key lock prevents two concurrent
// createSession races").
type Engine struct {
	st   *store.Store
	hub  Broadcaster
	log  *logger.Logger

	mu     sync.RWMutex
	cache  map[string]string // agent_id -> invocation_session_id
	create singleflight.Group
}

func New(st *store.Store, hub Broadcaster, log *logger.Logger) *Engine {
	return &Engine{
		st:    st,
		hub:   hub,
		log:   log,
		cache: make(map[string]string),
	}
}

// Trigger fires invocation for every addressed agent in the background
// (spec §4.4 "Background execution"); the caller (REST/MCP handler) must
// not block on this call.
func (e *Engine) Trigger(ctx context.Context, channel *store.Channel, triggering *store.Message, agentIDs []string, depth int) {
	if depth > MaxChainDepth {
		e.log.Warn("invocation chain depth exceeded, dropping",
			zap.String("channel_id", channel.ID), zap.Int("depth", depth))
		return
	}
	for _, agentID := range agentIDs {
		agentID := agentID
		go func() {
			bg := context.Background()
			if err := e.invokeAgent(bg, channel, triggering, agentID, depth); err != nil {
				e.log.WithError(err).Warn("invocation failed", zap.String("agent_id", agentID))
			}
		}()
	}
}

func (e *Engine) invokeAgent(ctx context.Context, channel *store.Channel, triggering *store.Message, agentID string, depth int) error {
	agent, err := e.st.Agents.Get(ctx, agentID)
	if err != nil || agent == nil {
		return fmt.Errorf("resolve agent %s: %w", agentID, err)
	}

	serverURL, sessionID, err := e.resolveCredentials(ctx, agent)
	if err != nil || serverURL == "" {
		// Step 1 fallback: delivered-but-unanswered. The agent sees the
		// message on its next get_messages call.
		return nil
	}

	client := opencode.New(serverURL)
	if health := client.Health(ctx); !health.Healthy {
		_ = e.st.Agents.UpdateCredentials(ctx, agent.ID, nil, nil)
		return fmt.Errorf("external sdk unreachable for agent %s: %s", agent.AgentName, health.Error)
	}

	invocationSessionID, err := e.obtainInvocationSession(ctx, client, agent)
	if err != nil {
		return fmt.Errorf("obtain invocation session: %w", err)
	}

	prompt, err := e.buildPrompt(ctx, channel, triggering)
	if err != nil {
		return fmt.Errorf("build prompt: %w", err)
	}

	e.hub.Broadcast(events.New(events.TypeAgentTyping, agent.WorkspaceID, channel.ID,
		events.AgentTypingData{AgentID: agent.ID, IsTyping: true}))

	resp, err := client.PromptSession(ctx, invocationSessionID, prompt)

	if err != nil {
		e.hub.Broadcast(events.New(events.TypeAgentTyping, agent.WorkspaceID, channel.ID,
			events.AgentTypingData{AgentID: agent.ID, IsTyping: false, Error: err.Error()}))
		return fmt.Errorf("dispatch prompt: %w", err)
	}
	e.hub.Broadcast(events.New(events.TypeAgentTyping, agent.WorkspaceID, channel.ID,
		events.AgentTypingData{AgentID: agent.ID, IsTyping: false}))

	text := opencode.ExtractText(resp)
	if text == "" {
		return nil
	}

	reply := &store.Message{
		ID:        uuid.NewString(),
		ChannelID: channel.ID,
		SenderID:  agent.ID,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.st.Messages.Create(ctx, reply); err != nil {
		return fmt.Errorf("post response: %w", err)
	}
	e.hub.Broadcast(events.New(events.TypeNewMessage, agent.WorkspaceID, channel.ID, reply))

	if mentioned := ExtractMentions(text); len(mentioned) > 0 {
		agentIDs, err := e.resolveMentionIDs(ctx, agent.WorkspaceID, mentioned)
		if err == nil && len(agentIDs) > 0 {
			e.Trigger(ctx, channel, reply, agentIDs, depth+1)
		}
	}
	return nil
}

// resolveCredentials implements spec §4.4 step 1: read (server_url,
// provider_session_id) from the agent row, falling back to auto-discovery
// when missing.
func (e *Engine) resolveCredentials(ctx context.Context, agent *store.Agent) (string, string, error) {
	if agent.ServerURL != nil && *agent.ServerURL != "" && agent.ProviderSessionID != nil && *agent.ProviderSessionID != "" {
		return *agent.ServerURL, *agent.ProviderSessionID, nil
	}

	match, err := discovery.Discover(ctx, agent.ProjectPath)
	if err != nil || match == nil {
		return "", "", nil
	}
	if err := e.st.Agents.UpdateCredentials(ctx, agent.ID, &match.ServerURL, &match.SessionID); err != nil {
		return "", "", err
	}
	return match.ServerURL, match.SessionID, nil
}

// obtainInvocationSession implements spec §4.4 step 3 and the invariant
// from §9: invocation sessions are dedicated per agent and must never be
// the agent's interactive TUI session. A singleflight group keyed on the
// agent id prevents two concurrent createSession races for the same
// agent (spec §5 shared-state table).
func (e *Engine) obtainInvocationSession(ctx context.Context, client *opencode.Client, agent *store.Agent) (string, error) {
	e.mu.RLock()
	cached, ok := e.cache[agent.ID]
	e.mu.RUnlock()
	if ok {
		if sessions, err := client.ListSessions(ctx); err == nil {
			for _, s := range sessions {
				if s.ID == cached {
					return cached, nil
				}
			}
		}
		e.mu.Lock()
		delete(e.cache, agent.ID)
		e.mu.Unlock()
	}

	result, err, _ := e.create.Do(agent.ID, func() (interface{}, error) {
		sess, err := client.CreateSession(ctx, agent.ProjectPath)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache[agent.ID] = sess.ID
		e.mu.Unlock()
		return sess.ID, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// buildPrompt implements spec §4.4 step 4.
func (e *Engine) buildPrompt(ctx context.Context, channel *store.Channel, triggering *store.Message) (string, error) {
	if channel.Type == store.ChannelTypeDM {
		return triggering.Content, nil
	}

	history, err := e.st.Messages.RecentBefore(ctx, channel.ID, triggering.ID, HistoryMax)
	if err != nil {
		return "", err
	}
	if len(history) > HistoryMax {
		history = history[len(history)-HistoryMax:]
	}

	var b strings.Builder
	for _, m := range history {
		name := e.senderName(ctx, m.SenderID)
		fmt.Fprintf(&b, "%s: %s\n", name, m.Content)
	}
	senderName := e.senderName(ctx, triggering.SenderID)
	fmt.Fprintf(&b, "[#%s] %s: %s", strings.TrimPrefix(channel.Name, "#"), senderName, triggering.Content)
	return b.String(), nil
}

func (e *Engine) senderName(ctx context.Context, userID string) string {
	u, err := e.st.Users.Get(ctx, userID)
	if err != nil || u == nil {
		return "unknown"
	}
	return u.Name
}

// resolveMentionIDs maps @-mention agent names to agent ids within a
// workspace; the engine uses it for reentrant chaining from an agent's
// reply.
func (e *Engine) resolveMentionIDs(ctx context.Context, workspaceID string, names []string) ([]string, error) {
	var ids []string
	for _, name := range names {
		agent, err := e.st.Agents.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if agent != nil && agent.WorkspaceID == workspaceID {
			ids = append(ids, agent.ID)
		}
	}
	return ids, nil
}

// ExtractMentions pulls @name tokens out of message content.
func ExtractMentions(content string) []string {
	var out []string
	for _, word := range strings.Fields(content) {
		if strings.HasPrefix(word, "@") {
			name := strings.TrimFunc(strings.TrimPrefix(word, "@"), func(r rune) bool {
				return !(r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
			})
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
