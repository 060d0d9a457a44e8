// Package rest implements TalkTo's REST surface (spec §6): the
// workspace-scoped CRUD and admin endpoints that sit alongside the MCP
// tool server and the WebSocket gateway.
package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/invocation"
	"github.com/hyperslack/talkto/internal/liveness"
	"github.com/hyperslack/talkto/internal/store"
	"github.com/hyperslack/talkto/internal/wsgateway"
)

// Handler bundles the collaborators every REST endpoint needs.
type Handler struct {
	Store    *store.Store
	Hub      *wsgateway.Hub
	Engine   *invocation.Engine
	Liveness *liveness.Detector
	Log      *logger.Logger
	Network  bool
}

func New(st *store.Store, hub *wsgateway.Hub, engine *invocation.Engine, liv *liveness.Detector, log *logger.Logger, network bool) *Handler {
	return &Handler{Store: st, Hub: hub, Engine: engine, Liveness: liv, Log: log, Network: network}
}

func respondErr(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"detail": apperr.Detail(err)})
}

func respond(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}
