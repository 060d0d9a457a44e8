package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/events"
	"github.com/hyperslack/talkto/internal/store"
)

type agentDTO struct {
	store.Agent
	IsGhost bool `json:"is_ghost"`
}

func (h *Handler) toAgentDTO(a store.Agent) agentDTO {
	return agentDTO{Agent: a, IsGhost: h.Liveness.IsGhost(a.ID)}
}

func (h *Handler) ListAgents(c *gin.Context) {
	p := authplane.Current(c)
	agents, err := h.Store.Agents.ListByWorkspace(c.Request.Context(), p.WorkspaceID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list agents", err))
		return
	}
	out := make([]agentDTO, 0, len(agents))
	for _, a := range agents {
		out = append(out, h.toAgentDTO(a))
	}
	respond(c, http.StatusOK, gin.H{"agents": out})
}

func (h *Handler) resolveAgent(c *gin.Context) *store.Agent {
	p := authplane.Current(c)
	a, err := h.Store.Agents.GetByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to fetch agent", err))
		return nil
	}
	if a == nil {
		respondErr(c, apperr.NewNotFound("agent not found"))
		return nil
	}
	if a.WorkspaceID != p.WorkspaceID {
		respondErr(c, apperr.NewNotFound("agent not found"))
		return nil
	}
	return a
}

func (h *Handler) GetAgent(c *gin.Context) {
	a := h.resolveAgent(c)
	if a == nil {
		return
	}
	respond(c, http.StatusOK, h.toAgentDTO(*a))
}

type dmRequest struct {
	Content string `json:"content" binding:"required"`
}

// DMAgent posts to (creating if necessary) the agent's DM channel and
// triggers invocation directly, bypassing the @-mention parser.
func (h *Handler) DMAgent(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	agent := h.resolveAgent(c)
	if agent == nil {
		return
	}
	var req dmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}

	ctx := c.Request.Context()
	dmName := "#dm-" + agent.AgentName
	ch, err := h.Store.Channels.GetByName(ctx, p.WorkspaceID, dmName)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to resolve dm channel", err))
		return
	}
	if ch == nil {
		ch = &store.Channel{ID: uuid.NewString(), Name: dmName, Type: store.ChannelTypeDM, WorkspaceID: p.WorkspaceID, CreatedBy: p.UserID}
		if err := h.Store.Channels.Create(ctx, ch); err != nil {
			respondErr(c, apperr.NewInternal("failed to create dm channel", err))
			return
		}
		if err := h.Store.Channels.AddMember(ctx, ch.ID, p.UserID); err != nil {
			respondErr(c, apperr.NewInternal("failed to add member", err))
			return
		}
		if err := h.Store.Channels.AddMember(ctx, ch.ID, agent.ID); err != nil {
			respondErr(c, apperr.NewInternal("failed to add member", err))
			return
		}
	}

	msg := &store.Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: p.UserID, Content: req.Content}
	if err := h.Store.Messages.Create(ctx, msg); err != nil {
		respondErr(c, apperr.NewInternal("failed to create message", err))
		return
	}
	h.Hub.Broadcast(events.New(events.TypeNewMessage, ch.WorkspaceID, ch.ID, msg))
	h.Engine.Trigger(ctx, ch, msg, []string{agent.ID}, 1)

	respond(c, http.StatusCreated, msg)
}
