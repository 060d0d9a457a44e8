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

func (h *Handler) ListFeatures(c *gin.Context) {
	fs, err := h.Store.Features.List(c.Request.Context())
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list features", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"features": fs})
}

type createFeatureRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) CreateFeature(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	var req createFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	f := &store.FeatureRequest{ID: uuid.NewString(), Title: req.Title, Description: req.Description, CreatedBy: p.UserID}
	if err := h.Store.Features.Create(c.Request.Context(), f); err != nil {
		respondErr(c, apperr.NewInternal("failed to create feature request", err))
		return
	}
	h.Hub.Broadcast(events.New(events.TypeFeatureUpdate, p.WorkspaceID, "", f))
	respond(c, http.StatusCreated, f)
}

type voteFeatureRequest struct {
	Vote int `json:"vote" binding:"required"`
}

func (h *Handler) VoteFeature(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	var req voteFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	if req.Vote != 1 && req.Vote != -1 {
		respondErr(c, apperr.NewValidation("vote must be 1 or -1"))
		return
	}
	if err := h.Store.Features.Vote(c.Request.Context(), c.Param("id"), p.UserID, req.Vote); err != nil {
		respondErr(c, apperr.NewInternal("failed to record vote", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"ok": true})
}
