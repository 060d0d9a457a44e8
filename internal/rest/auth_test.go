package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func TestAuth_MeReflectsPrincipal(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h, authplane.Principal{UserID: "u1", WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	w := doJSON(t, router, http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"user_id":"u1","workspace_id":"`+store.DefaultWorkspaceID+`","role":"admin"}`, w.Body.String())
}

func TestAuth_LogoutClearsCookieEvenWithoutExistingSession(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h, authplane.Principal{UserID: "u1", WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	w := doJSON(t, router, http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == authplane.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared, "expected session cookie to be cleared")
}
