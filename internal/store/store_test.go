package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talkto.db")
	dbConn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })

	st, err := New(dbConn)
	require.NoError(t, err)
	return st
}

func TestNew_SeedsDefaultWorkspace(t *testing.T) {
	st := newTestStore(t)
	ws, err := st.Workspaces.Default(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ws)
	require.Equal(t, DefaultWorkspaceID, ws.ID)
}
