package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/invocation"
	"github.com/hyperslack/talkto/internal/liveness"
	"github.com/hyperslack/talkto/internal/store"
	"github.com/hyperslack/talkto/internal/wsgateway"
)

const sessionHeader = "mcp-session-id"

// Handlers bundles the collaborators every tool handler needs.
type Handlers struct {
	Store     *store.Store
	Hub       *wsgateway.Hub
	Engine    *invocation.Engine
	Liveness  *liveness.Detector
	Log       *logger.Logger
	PromptDir string
}

// Server is the gin-facing /mcp endpoint: a factory over per-session
// state, never a shared singleton tool server.
type Server struct {
	registry *Registry
	handlers *Handlers
}

func New(h *Handlers) *Server {
	return &Server{registry: NewRegistry(), handlers: h}
}

func (s *Server) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, errorResponse(nil, codeParseError, "parse error"))
			return
		}

		session := s.resolveSession(c, req)
		ctx := c.Request.Context()

		resp := s.dispatch(ctx, session, req)
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) resolveSession(c *gin.Context, req Request) *SessionState {
	if id := c.GetHeader(sessionHeader); id != "" {
		if sess, ok := s.registry.Get(id); ok {
			sess.touch()
			return sess
		}
	}
	principal := authplane.Current(c)
	sess := s.registry.New(principal.WorkspaceID)
	c.Header(sessionHeader, sess.ID)
	return sess
}

func (s *Server) dispatch(ctx context.Context, session *SessionState, req Request) Response {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo":      map[string]string{"name": "talkto", "version": "1.0.0"},
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
		})
	case "notifications/initialized":
		return resultResponse(req.ID, map[string]interface{}{})
	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{"tools": toolDefinitions()})
	case "tools/call":
		return s.callTool(ctx, session, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}

type toolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

func (s *Server) callTool(ctx context.Context, session *SessionState, req Request) Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid tools/call params")
	}

	fn, ok := toolRegistry[params.Name]
	if !ok {
		return errorResponse(req.ID, codeMethodNotFound, "unknown tool: "+params.Name)
	}

	result, err := fn(ctx, s.handlers, session, params.Arguments)
	if err != nil {
		// Protocol-level failure (should not happen for semantic
		// failures, which are {error: "..."} inside result per §4.2).
		return resultResponse(req.ID, mcp.NewToolResultError(err.Error()))
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return resultResponse(req.ID, mcp.NewToolResultError("failed to encode tool result"))
	}
	return resultResponse(req.ID, mcp.NewToolResultText(string(payload)))
}

// requireRegistered implements the "{error: Not registered...}" guard
// every tool but register() must apply (spec §4.2, property P10).
func requireRegistered(session *SessionState) (string, map[string]interface{}) {
	agentID, ok := session.registeredAgentID()
	if !ok {
		return "", map[string]interface{}{"error": "Not registered. Call register first."}
	}
	return agentID, nil
}
