package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/authplane"
)

// Search applies the text filter AND the channel filter simultaneously
// (spec §6); the LIKE-escaping itself lives in store.MessageRepo.Search.
func (h *Handler) Search(c *gin.Context) {
	p := authplane.Current(c)
	query := c.Query("q")

	channelID := ""
	if name := c.Query("channel"); name != "" {
		ch, err := h.Store.Channels.Resolve(c.Request.Context(), p.WorkspaceID, name)
		if err != nil {
			respondErr(c, apperr.NewInternal("failed to resolve channel", err))
			return
		}
		if ch == nil {
			respond(c, http.StatusOK, gin.H{"messages": []interface{}{}})
			return
		}
		channelID = ch.ID
	}

	results, err := h.Store.Messages.Search(c.Request.Context(), p.WorkspaceID, query, channelID)
	if err != nil {
		respondErr(c, apperr.NewInternal("search failed", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"messages": results})
}
