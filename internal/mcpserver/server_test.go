package mcpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func postRPC(t *testing.T, srv *Server, sessionID string, body map[string]interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}

	w := httptest.NewRecorder()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("talkto_principal", authplane.Principal{WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin})
		c.Next()
	})
	router.POST("/mcp", srv.Handler())
	router.ServeHTTP(w, req)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestServer_NewSessionIssuesSessionIDHeader(t *testing.T) {
	h := newTestHandlers(t)
	srv := New(h)

	w, resp := postRPC(t, srv, "", map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "initialize"})
	require.NotEmpty(t, w.Header().Get(sessionHeader))
	require.Nil(t, resp.Error)
}

func TestServer_ToolsListReturnsAllSixteenTools(t *testing.T) {
	h := newTestHandlers(t)
	srv := New(h)

	_, resp := postRPC(t, srv, "", map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "tools/list"})
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	tools, ok := result["tools"].([]interface{})
	require.True(t, ok)
	require.Len(t, tools, 16)
}

func TestServer_SessionsAreIsolatedAcrossIDs(t *testing.T) {
	h := newTestHandlers(t)
	srv := New(h)

	w1, _ := postRPC(t, srv, "", map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "initialize"})
	sessionA := w1.Header().Get(sessionHeader)

	w2, _ := postRPC(t, srv, "", map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "initialize"})
	sessionB := w2.Header().Get(sessionHeader)
	require.NotEqual(t, sessionA, sessionB)

	registerParams, _ := json.Marshal(map[string]interface{}{
		"name":      "register",
		"arguments": map[string]interface{}{"session_id": "tty-1", "project_path": "/tmp/a", "agent_name": "fixer"},
	})
	_, regResp := postRPC(t, srv, sessionA, map[string]interface{}{
		"jsonrpc": "2.0", "id": 2, "method": "tools/call", "params": json.RawMessage(registerParams),
	})
	require.Nil(t, regResp.Error)

	heartbeatParams, _ := json.Marshal(map[string]interface{}{"name": "heartbeat"})
	_, hbResp := postRPC(t, srv, sessionB, map[string]interface{}{
		"jsonrpc": "2.0", "id": 3, "method": "tools/call", "params": json.RawMessage(heartbeatParams),
	})
	require.Nil(t, hbResp.Error)
	text := resultText(t, hbResp)
	require.Contains(t, text, "Not registered")
}

func resultText(t *testing.T, resp Response) string {
	t.Helper()
	m, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := m["content"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, content)
	first, ok := content[0].(map[string]interface{})
	require.True(t, ok)
	return first["text"].(string)
}

func TestServer_UnknownMethodReturnsMethodNotFound(t *testing.T) {
	h := newTestHandlers(t)
	srv := New(h)

	_, resp := postRPC(t, srv, "", map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": "bogus"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}
