// Package liveness implements the ghost detector of spec §4.5: a 30s
// periodic sweep that classifies every agent as alive, ghost, or
// unreachable, surfaced via IsGhost.
package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/opencode"
	"github.com/hyperslack/talkto/internal/store"
)

const SweepInterval = 30 * time.Second

// Detector rebuilds its ghost map on every tick and swaps it in whole,
// per spec §5's "swap-in-whole-map discipline": readers see either the
// pre- or post-swap map, never a partially updated one.
type Detector struct {
	st  *store.Store
	log *logger.Logger

	mu    sync.RWMutex
	ghost map[string]bool
}

func New(st *store.Store, log *logger.Logger) *Detector {
	return &Detector{st: st, log: log, ghost: make(map[string]bool)}
}

// Run ticks every SweepInterval until done is closed.
func (d *Detector) Run(done <-chan struct{}) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	d.sweepOnce()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			d.sweepOnce()
		}
	}
}

// IsGhost reports the agent's ghost status as of the most recent sweep.
// Advisory only — a ghost agent still accepts register() to resurrect.
func (d *Detector) IsGhost(agentID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.ghost[agentID]
}

func (d *Detector) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), SweepInterval)
	defer cancel()

	agents, err := d.st.Agents.ListAll(ctx)
	if err != nil {
		d.log.WithError(err).Warn("ghost sweep: list agents failed")
		return
	}

	serverSessions := make(map[string]map[string]bool) // server_url -> set of session ids, memoized per sweep
	fresh := make(map[string]bool, len(agents))

	for _, agent := range agents {
		fresh[agent.ID] = d.classify(ctx, agent, serverSessions)
	}

	d.mu.Lock()
	d.ghost = fresh
	d.mu.Unlock()
}

func (d *Detector) classify(ctx context.Context, agent store.Agent, serverSessions map[string]map[string]bool) bool {
	if agent.AgentType == "system" {
		return false
	}

	if agent.ServerURL != nil && *agent.ServerURL != "" && agent.ProviderSessionID != nil && *agent.ProviderSessionID != "" {
		ids, ok := serverSessions[*agent.ServerURL]
		if !ok {
			ids = d.fetchSessionIDs(ctx, *agent.ServerURL)
			serverSessions[*agent.ServerURL] = ids
		}
		return !ids[*agent.ProviderSessionID]
	}

	sess, err := d.st.Agents.ActiveSession(ctx, agent.ID)
	if err != nil || sess == nil {
		return true
	}
	return !pidAlive(sess.PID)
}

// fetchSessionIDs lists sessions on a server, returning an empty (all-
// ghost) set if the server is unreachable — caching happens one level up
// in sweepOnce's serverSessions map, for the duration of one sweep only.
func (d *Detector) fetchSessionIDs(ctx context.Context, serverURL string) map[string]bool {
	client := opencode.New(serverURL)
	sessions, err := client.ListSessions(ctx)
	set := make(map[string]bool, len(sessions))
	if err != nil {
		return set
	}
	for _, s := range sessions {
		set[s.ID] = true
	}
	return set
}
