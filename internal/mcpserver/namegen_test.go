package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/store"
)

func TestGenerateAgentName_ProducesAdjectiveAnimalCompound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talkto.db")
	dbConn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	st, err := store.New(dbConn)
	require.NoError(t, err)

	name, err := GenerateAgentName(context.Background(), st.Agents, "seed-1")
	require.NoError(t, err)
	parts := strings.Split(name, "-")
	require.Len(t, parts, 2)
	require.Contains(t, adjectives, parts[0])
	require.Contains(t, animals, parts[1])
}

func TestGenerateAgentName_SkipsExistingNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talkto.db")
	dbConn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	st, err := store.New(dbConn)
	require.NoError(t, err)

	taken := adjectives[0] + "-" + animals[0]
	require.NoError(t, st.Users.Create(context.Background(), &store.User{ID: "u1", Name: taken, Type: store.UserTypeAgent}))
	require.NoError(t, st.Agents.Create(context.Background(), &store.Agent{ID: "u1", AgentName: taken, WorkspaceID: store.DefaultWorkspaceID}))

	name, err := GenerateAgentName(context.Background(), st.Agents, "seed-2")
	require.NoError(t, err)
	require.NotEqual(t, taken, name)
}
