package rest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func TestFeatures_CreateThenVoteAffectsScore(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	w := doJSON(t, router, http.MethodPost, "/api/features", map[string]string{"title": "dark mode"})
	require.Equal(t, http.StatusCreated, w.Code)
	var f store.FeatureRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	require.Equal(t, "open", f.Status)

	w = doJSON(t, router, http.MethodPost, "/api/features/"+f.ID+"/vote", map[string]int{"vote": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/features", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Features []store.FeatureRequest `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Features, 1)
}

func TestFeatures_VoteRejectsInvalidValue(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	w := doJSON(t, router, http.MethodPost, "/api/features", map[string]string{"title": "x"})
	require.Equal(t, http.StatusCreated, w.Code)
	var f store.FeatureRequest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))

	w = doJSON(t, router, http.MethodPost, "/api/features/"+f.ID+"/vote", map[string]int{"vote": 2})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
