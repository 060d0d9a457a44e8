package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/events"
	"github.com/hyperslack/talkto/internal/invocation"
	"github.com/hyperslack/talkto/internal/store"
)

const maxMessageLimit = 100

func mergeMentions(explicit []string, content string) []string {
	seen := make(map[string]bool, len(explicit))
	var out []string
	for _, name := range append(explicit, invocation.ExtractMentions(content)...) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

func (h *Handler) ListMessages(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxMessageLimit {
			limit = n
		}
	}
	msgs, err := h.Store.Messages.ListByChannel(c.Request.Context(), ch.ID, c.Query("before"), limit)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list messages", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"messages": msgs})
}

type postMessageRequest struct {
	Content  string   `json:"content" binding:"required"`
	Mentions []string `json:"mentions"`
	ParentID *string  `json:"parent_id"`
}

func (h *Handler) PostMessage(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	if len(req.Content) > store.MaxMessageContentLen {
		respondErr(c, apperr.NewValidation("content exceeds maximum length"))
		return
	}

	mentions := mergeMentions(req.Mentions, req.Content)
	msg := &store.Message{ID: uuid.NewString(), ChannelID: ch.ID, SenderID: p.UserID, Content: req.Content, ParentID: req.ParentID}
	if len(mentions) > 0 {
		encoded, _ := json.Marshal(mentions)
		s := string(encoded)
		msg.Mentions = &s
	}

	ctx := c.Request.Context()
	if err := h.Store.Messages.Create(ctx, msg); err != nil {
		respondErr(c, apperr.NewInternal("failed to create message", err))
		return
	}
	h.Hub.Broadcast(events.New(events.TypeNewMessage, ch.WorkspaceID, ch.ID, msg))

	if len(mentions) > 0 {
		var agentIDs []string
		for _, name := range mentions {
			if a, err := h.Store.Agents.GetByName(ctx, name); err == nil && a != nil && a.WorkspaceID == ch.WorkspaceID {
				agentIDs = append(agentIDs, a.ID)
			}
		}
		if len(agentIDs) > 0 {
			h.Engine.Trigger(ctx, ch, msg, agentIDs, 1)
		}
	}

	respond(c, http.StatusCreated, msg)
}

func (h *Handler) resolveMessage(c *gin.Context, ch *store.Channel) *store.Message {
	msg, err := h.Store.Messages.Get(c.Request.Context(), c.Param("mid"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to fetch message", err))
		return nil
	}
	if msg == nil || msg.ChannelID != ch.ID {
		respondErr(c, apperr.NewNotFound("message not found"))
		return nil
	}
	return msg
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) EditMessage(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	msg := h.resolveMessage(c, ch)
	if msg == nil {
		return
	}
	if msg.SenderID != p.UserID && !p.IsAdmin() {
		respondErr(c, apperr.NewForbidden("cannot edit another user's message"))
		return
	}
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	if err := h.Store.Messages.Edit(c.Request.Context(), msg.ID, req.Content); err != nil {
		respondErr(c, apperr.NewInternal("failed to edit message", err))
		return
	}
	h.Hub.Broadcast(events.New(events.TypeMessageEdited, ch.WorkspaceID, ch.ID, gin.H{"id": msg.ID, "content": req.Content}))
	respond(c, http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	msg := h.resolveMessage(c, ch)
	if msg == nil {
		return
	}
	if msg.SenderID != p.UserID && !p.IsAdmin() {
		respondErr(c, apperr.NewForbidden("cannot delete another user's message"))
		return
	}
	if err := h.Store.Messages.Delete(c.Request.Context(), msg.ID); err != nil {
		respondErr(c, apperr.NewInternal("failed to delete message", err))
		return
	}
	h.Hub.Broadcast(events.New(events.TypeMessageDeleted, ch.WorkspaceID, ch.ID, gin.H{"id": msg.ID}))
	c.Status(http.StatusNoContent)
}

func (h *Handler) PinMessage(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	msg := h.resolveMessage(c, ch)
	if msg == nil {
		return
	}
	pinned, err := h.Store.Messages.TogglePin(c.Request.Context(), msg.ID, p.UserID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to toggle pin", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"pinned": pinned})
}

func (h *Handler) ListPinned(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	pinned, err := h.Store.Messages.ListPinned(c.Request.Context(), ch.ID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list pinned messages", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"messages": pinned})
}

type reactRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (h *Handler) ReactMessage(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	msg := h.resolveMessage(c, ch)
	if msg == nil {
		return
	}
	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	added, err := h.Store.Messages.ToggleReaction(c.Request.Context(), msg.ID, p.UserID, req.Emoji)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to toggle reaction", err))
		return
	}
	h.Hub.Broadcast(events.New(events.TypeReaction, ch.WorkspaceID, ch.ID,
		gin.H{"message_id": msg.ID, "user_id": p.UserID, "emoji": req.Emoji, "added": added}))
	respond(c, http.StatusOK, gin.H{"added": added})
}

func (h *Handler) ListReactions(c *gin.Context) {
	ch := h.resolveChannel(c)
	if ch == nil {
		return
	}
	msg := h.resolveMessage(c, ch)
	if msg == nil {
		return
	}
	reactions, err := h.Store.Messages.Reactions(c.Request.Context(), msg.ID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list reactions", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"reactions": reactions})
}
