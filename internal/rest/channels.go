package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

func (h *Handler) ListChannels(c *gin.Context) {
	p := authplane.Current(c)
	chans, err := h.Store.Channels.ListByWorkspace(c.Request.Context(), p.WorkspaceID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list channels", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"channels": chans})
}

type createChannelRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) CreateChannel(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	name := req.Name
	if len(name) == 0 || name[0] != '#' {
		name = "#" + name
	}

	ctx := c.Request.Context()
	if existing, err := h.Store.Channels.GetByName(ctx, p.WorkspaceID, name); err != nil {
		respondErr(c, apperr.NewInternal("failed to check channel", err))
		return
	} else if existing != nil {
		respondErr(c, apperr.NewConflict("channel already exists"))
		return
	}

	ch := &store.Channel{ID: uuid.NewString(), Name: name, Type: store.ChannelTypeCustom, WorkspaceID: p.WorkspaceID, CreatedBy: p.UserID}
	if err := h.Store.Channels.Create(ctx, ch); err != nil {
		respondErr(c, apperr.NewInternal("failed to create channel", err))
		return
	}
	if err := h.Store.Channels.AddMember(ctx, ch.ID, p.UserID); err != nil {
		respondErr(c, apperr.NewInternal("failed to add member", err))
		return
	}
	respond(c, http.StatusCreated, ch)
}

func (h *Handler) resolveChannel(c *gin.Context) *store.Channel {
	ch, err := h.Store.Channels.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to fetch channel", err))
		return nil
	}
	if ch == nil {
		respondErr(c, apperr.NewNotFound("channel not found"))
		return nil
	}
	if !authplane.RequireSameWorkspace(c, ch.WorkspaceID) {
		return nil
	}
	return ch
}

func (h *Handler) GetChannel(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	respond(c, http.StatusOK, ch)
}

func (h *Handler) ChannelAnalytics(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	count, err := h.Store.Channels.MessageCount(c.Request.Context(), ch.ID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to compute analytics", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"channel_id": ch.ID, "message_count": count})
}

// DeleteChannel implements invariant I7: a channel with messages is
// archived rather than deleted outright.
func (h *Handler) DeleteChannel(c *gin.Context) {
	if _, ok := authplane.RequireAdmin(c); !ok {
		return
	}
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	ctx := c.Request.Context()
	count, err := h.Store.Channels.MessageCount(ctx, ch.ID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to check channel history", err))
		return
	}
	if count > 0 {
		if err := h.Store.Channels.Archive(ctx, ch.ID); err != nil {
			respondErr(c, apperr.NewInternal("failed to archive channel", err))
			return
		}
		respond(c, http.StatusOK, gin.H{"archived": true})
		return
	}
	if err := h.Store.Channels.Delete(ctx, ch.ID); err != nil {
		respondErr(c, apperr.NewInternal("failed to delete channel", err))
		return
	}
	c.Status(http.StatusNoContent)
}
