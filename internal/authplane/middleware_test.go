package authplane

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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

func runMiddleware(t *testing.T, st *store.Store, network bool, req *http.Request) (*httptest.ResponseRecorder, Principal, bool) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()

	var captured Principal
	var capturedOK bool
	router := gin.New()
	router.Use(Middleware(st, network, testLogger(t)))
	router.GET(req.URL.Path, func(c *gin.Context) {
		captured, capturedOK = Current(c), true
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(w, req)
	return w, captured, capturedOK
}

func TestMiddleware_PublicPathSkipsAuth(t *testing.T) {
	st := newTestStore(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)

	w, _, _ := runMiddleware(t, st, true, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_NetworkModeRejectsUnauthenticated(t *testing.T) {
	st := newTestStore(t)
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)

	w, _, _ := runMiddleware(t, st, true, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_LocalModeLoopbackBypassGrantsAdmin(t *testing.T) {
	st := newTestStore(t)
	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.RemoteAddr = "127.0.0.1:54321"

	w, p, ok := runMiddleware(t, st, false, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, ok)
	require.True(t, p.IsAdmin())
	require.Equal(t, store.DefaultWorkspaceID, p.WorkspaceID)
}

func TestMiddleware_CookieSessionResolvesPrincipal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := &store.User{ID: "u1", Name: "alice", Type: store.UserTypeHuman}
	require.NoError(t, st.Users.Create(ctx, user))
	require.NoError(t, st.Workspaces.AddMember(ctx, store.DefaultWorkspaceID, user.ID, store.RoleMember))

	token, sess, err := NewSession(st, user.ID, store.DefaultWorkspaceID, time.Hour)
	require.NoError(t, err)
	require.NoError(t, st.Auth.CreateSession(ctx, sess))

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})

	w, p, ok := runMiddleware(t, st, true, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, ok)
	require.Equal(t, user.ID, p.UserID)
	require.Equal(t, store.RoleMember, p.Role)
}

func TestMiddleware_APIKeyResolvesAdminPrincipal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	token, err := GenerateToken(APIKeyTokenPrefix)
	require.NoError(t, err)
	key := &store.WorkspaceAPIKey{
		ID: "k1", WorkspaceID: store.DefaultWorkspaceID, KeyHash: HashToken(token),
		KeyPrefix: KeyPrefix(token), CreatedBy: "u1", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.Auth.CreateAPIKey(ctx, key))

	req := httptest.NewRequest(http.MethodGet, "/api/messages", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w, p, ok := runMiddleware(t, st, true, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, ok)
	require.True(t, p.IsAdmin())
	require.Equal(t, store.DefaultWorkspaceID, p.WorkspaceID)
}
