package liveness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talkto.db")
	dbConn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	st, err := store.New(dbConn)
	require.NoError(t, err)
	return st
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)
	return log
}

func seedLivenessAgent(t *testing.T, st *store.Store, id, name, agentType string) *store.Agent {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Users.Create(ctx, &store.User{ID: id, Name: name, Type: store.UserTypeAgent}))
	agent := &store.Agent{ID: id, AgentName: name, AgentType: agentType, WorkspaceID: store.DefaultWorkspaceID}
	require.NoError(t, st.Agents.Create(ctx, agent))
	return agent
}

func TestClassify_SystemAgentsAreNeverGhosts(t *testing.T) {
	st := newTestStore(t)
	d := New(st, testLogger(t))
	agent := seedLivenessAgent(t, st, "sys-1", "orchestrator", "system")

	require.False(t, d.classify(context.Background(), *agent, map[string]map[string]bool{}))
}

func TestClassify_NoActiveSessionIsGhost(t *testing.T) {
	st := newTestStore(t)
	d := New(st, testLogger(t))
	agent := seedLivenessAgent(t, st, "a-1", "fixer", "cli")

	require.True(t, d.classify(context.Background(), *agent, map[string]map[string]bool{}))
}

func TestClassify_ActiveSessionWithLivePIDIsNotGhost(t *testing.T) {
	st := newTestStore(t)
	d := New(st, testLogger(t))
	agent := seedLivenessAgent(t, st, "a-2", "builder", "cli")

	sess := &store.AgentSession{ID: "sess-1", AgentID: agent.ID, PID: os.Getpid(), IsActive: true, StartedAt: time.Now(), LastHeartbeat: time.Now()}
	require.NoError(t, st.Agents.CreateSession(context.Background(), sess))

	require.False(t, d.classify(context.Background(), *agent, map[string]map[string]bool{}))
}

func TestClassify_ActiveSessionWithDeadPIDIsGhost(t *testing.T) {
	st := newTestStore(t)
	d := New(st, testLogger(t))
	agent := seedLivenessAgent(t, st, "a-3", "reviewer", "cli")

	sess := &store.AgentSession{ID: "sess-2", AgentID: agent.ID, PID: 999999, IsActive: true, StartedAt: time.Now(), LastHeartbeat: time.Now()}
	require.NoError(t, st.Agents.CreateSession(context.Background(), sess))

	require.True(t, d.classify(context.Background(), *agent, map[string]map[string]bool{}))
}

func TestSweepOnce_PopulatesGhostMapAndIsGhostReflectsIt(t *testing.T) {
	st := newTestStore(t)
	d := New(st, testLogger(t))
	seedLivenessAgent(t, st, "a-4", "lonely", "cli")

	d.sweepOnce()

	require.True(t, d.IsGhost("a-4"))
	require.False(t, d.IsGhost("unknown-agent"))
}
