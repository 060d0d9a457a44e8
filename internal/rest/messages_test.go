package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func seedChannel(t *testing.T, h *Handler, createdBy string) *store.Channel {
	t.Helper()
	ch := &store.Channel{ID: "ch-" + createdBy, Name: "#general", Type: store.ChannelTypeGeneral, WorkspaceID: store.DefaultWorkspaceID, CreatedBy: createdBy}
	require.NoError(t, h.Store.Channels.Create(context.Background(), ch))
	return ch
}

func TestMessages_PostThenListRoundTrips(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	ch := seedChannel(t, h, user.ID)
	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	w := doJSON(t, router, http.MethodPost, "/api/channels/"+ch.ID+"/messages", map[string]string{"content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/channels/"+ch.ID+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Messages []store.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Messages, 1)
	require.Equal(t, "hello", body.Messages[0].Content)
}

func TestMessages_EditByNonAuthorIsForbidden(t *testing.T) {
	h := newTestHandler(t)
	author := seedHumanMember(t, h, store.DefaultWorkspaceID)
	other := &store.User{ID: "u-other", Name: "bob", Type: store.UserTypeHuman}
	require.NoError(t, h.Store.Users.Create(context.Background(), other))
	require.NoError(t, h.Store.Workspaces.AddMember(context.Background(), store.DefaultWorkspaceID, other.ID, store.RoleMember))
	ch := seedChannel(t, h, author.ID)

	authorRouter := newTestRouter(h, authplane.Principal{UserID: author.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})
	w := doJSON(t, authorRouter, http.MethodPost, "/api/channels/"+ch.ID+"/messages", map[string]string{"content": "mine"})
	require.Equal(t, http.StatusCreated, w.Code)
	var msg store.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))

	otherRouter := newTestRouter(h, authplane.Principal{UserID: other.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleMember})
	w = doJSON(t, otherRouter, http.MethodPatch, "/api/channels/"+ch.ID+"/messages/"+msg.ID, map[string]string{"content": "hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMessages_RawAtMentionInContentTriggersInvocation(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	ch := seedChannel(t, h, user.ID)
	require.NoError(t, h.Store.Users.Create(context.Background(), &store.User{ID: "agent-1", Name: "plucky-sparrow", Type: store.UserTypeAgent}))
	require.NoError(t, h.Store.Agents.Create(context.Background(), &store.Agent{ID: "agent-1", AgentName: "plucky-sparrow", WorkspaceID: store.DefaultWorkspaceID}))

	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})
	w := doJSON(t, router, http.MethodPost, "/api/channels/"+ch.ID+"/messages", map[string]string{"content": "@plucky-sparrow what is 2+2?"})
	require.Equal(t, http.StatusCreated, w.Code)

	var msg store.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	require.NotNil(t, msg.Mentions)
	require.Contains(t, *msg.Mentions, "plucky-sparrow")
}

func TestMessages_PostRejectsContentOverMaxLength(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	ch := seedChannel(t, h, user.ID)
	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	oversized := make([]byte, store.MaxMessageContentLen+1)
	for i := range oversized {
		oversized[i] = 'x'
	}
	w := doJSON(t, router, http.MethodPost, "/api/channels/"+ch.ID+"/messages", map[string]string{"content": string(oversized)})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessages_ReactTogglesOnAndOff(t *testing.T) {
	h := newTestHandler(t)
	user := seedHumanMember(t, h, store.DefaultWorkspaceID)
	ch := seedChannel(t, h, user.ID)
	router := newTestRouter(h, authplane.Principal{UserID: user.ID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})

	w := doJSON(t, router, http.MethodPost, "/api/channels/"+ch.ID+"/messages", map[string]string{"content": "react to me"})
	require.Equal(t, http.StatusCreated, w.Code)
	var msg store.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))

	w = doJSON(t, router, http.MethodPost, "/api/channels/"+ch.ID+"/messages/"+msg.ID+"/react", map[string]string{"emoji": "👍"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"added":true}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/channels/"+ch.ID+"/messages/"+msg.ID+"/react", map[string]string{"emoji": "👍"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"added":false}`, w.Body.String())
}
