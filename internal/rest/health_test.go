package rest

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func TestHealth_ReturnsOK(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h, authplane.Principal{WorkspaceID: store.DefaultWorkspaceID})

	w := doJSON(t, router, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ok"`)
}
