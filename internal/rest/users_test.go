package rest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func TestUsers_OnboardCreatesSessionCookieAndAdminMembership(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h, authplane.Principal{WorkspaceID: store.DefaultWorkspaceID})

	w := doJSON(t, router, http.MethodPost, "/api/users/onboard", map[string]string{"name": "ada"})
	require.Equal(t, http.StatusCreated, w.Code)

	cookies := w.Result().Cookies()
	var found bool
	for _, c := range cookies {
		if c.Name == authplane.SessionCookieName {
			found = true
		}
	}
	require.True(t, found, "expected session cookie to be set")
}

func TestUsers_OnboardTwiceConflicts(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h, authplane.Principal{WorkspaceID: store.DefaultWorkspaceID})

	w := doJSON(t, router, http.MethodPost, "/api/users/onboard", map[string]string{"name": "ada"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/users/onboard", map[string]string{"name": "bob"})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestUsers_UpdateMePersistsDisplayName(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	display := "Ada Lovelace"
	w := doJSON(t, router, http.MethodPatch, "/api/users/me", map[string]*string{"display_name": &display})
	require.Equal(t, http.StatusOK, w.Code)
	var updated store.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.NotNil(t, updated.DisplayName)
	require.Equal(t, display, *updated.DisplayName)
}

func TestUsers_GetMeWithoutUserIsUnauthenticated(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h, authplane.Principal{WorkspaceID: store.DefaultWorkspaceID})

	w := doJSON(t, router, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
