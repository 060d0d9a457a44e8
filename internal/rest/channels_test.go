package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/invocation"
	"github.com/hyperslack/talkto/internal/liveness"
	"github.com/hyperslack/talkto/internal/store"
	"github.com/hyperslack/talkto/internal/wsgateway"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talkto.db")
	dbConn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })

	st, err := store.New(dbConn)
	require.NoError(t, err)

	log, err := logger.New(logger.Config{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)

	hub := wsgateway.NewHub(log)
	return New(st, hub, invocation.New(st, hub, log), liveness.New(st, log), log, false)
}

// newTestRouter wires SetupRoutes behind a fake auth middleware that
// always injects the given principal, mirroring how authplane.Middleware
// would attach it on a real request.
func newTestRouter(h *Handler, p authplane.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("talkto_principal", p)
		c.Next()
	})
	SetupRoutes(api, h)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedHumanMember(t *testing.T, h *Handler, workspaceID string) *store.User {
	t.Helper()
	user := &store.User{ID: "u-" + workspaceID, Name: "ada", Type: store.UserTypeHuman}
	require.NoError(t, h.Store.Users.Create(context.Background(), user))
	require.NoError(t, h.Store.Workspaces.AddMember(context.Background(), workspaceID, user.ID, store.RoleAdmin))
	return user
}

func TestChannels_CreateThenGetRoundTrips(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	p := authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin}
	router := newTestRouter(h, p)

	w := doJSON(t, router, http.MethodPost, "/api/channels", map[string]string{"name": "roadmap"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Channel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "#roadmap", created.Name)

	w = doJSON(t, router, http.MethodGet, "/api/channels/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestChannels_CreateDuplicateNameConflicts(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	p := authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin}
	router := newTestRouter(h, p)

	w := doJSON(t, router, http.MethodPost, "/api/channels", map[string]string{"name": "#dup"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/channels", map[string]string{"name": "#dup"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestChannels_GetFromOtherWorkspaceReturnsNotFound(t *testing.T) {
	h := newTestHandler(t)
	other := &store.Workspace{ID: "ws-other", Name: "other", Slug: "other", Type: store.WorkspaceTypeShared}
	require.NoError(t, h.Store.Workspaces.Create(context.Background(), other))
	ch := &store.Channel{ID: "ch-1", Name: "#general", Type: store.ChannelTypeGeneral, WorkspaceID: other.ID}
	require.NoError(t, h.Store.Channels.Create(context.Background(), ch))

	p := authplane.Principal{UserID: "u1", WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin}
	router := newTestRouter(h, p)

	w := doJSON(t, router, http.MethodGet, "/api/channels/"+ch.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestChannels_DeleteWithNoMessagesHardDeletes(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	p := authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin}
	router := newTestRouter(h, p)

	w := doJSON(t, router, http.MethodPost, "/api/channels", map[string]string{"name": "empty"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Channel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodDelete, "/api/channels/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	ch, err := h.Store.Channels.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Nil(t, ch)
}

func TestChannels_DeleteWithMessagesArchivesInstead(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	p := authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin}
	router := newTestRouter(h, p)

	w := doJSON(t, router, http.MethodPost, "/api/channels", map[string]string{"name": "busy"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Channel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, router, http.MethodPost, "/api/channels/"+created.ID+"/messages", map[string]string{"content": "hi"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/channels/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"archived":true}`, w.Body.String())

	ch, err := h.Store.Channels.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, ch)
	require.True(t, ch.IsArchived)
}

func TestChannels_DeleteByNonAdminIsForbidden(t *testing.T) {
	h := newTestHandler(t)
	member := &store.User{ID: "u-member", Name: "bob", Type: store.UserTypeHuman}
	require.NoError(t, h.Store.Users.Create(context.Background(), member))
	require.NoError(t, h.Store.Workspaces.AddMember(context.Background(), store.DefaultWorkspaceID, member.ID, store.RoleMember))
	ch := seedChannel(t, h, member.ID)

	router := newTestRouter(h, authplane.Principal{UserID: member.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleMember})
	w := doJSON(t, router, http.MethodDelete, "/api/channels/"+ch.ID, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}
