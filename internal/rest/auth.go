package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hyperslack/talkto/internal/authplane"
)

func (h *Handler) AuthMe(c *gin.Context) {
	p := authplane.Current(c)
	respond(c, http.StatusOK, gin.H{"user_id": p.UserID, "workspace_id": p.WorkspaceID, "role": p.Role})
}

func (h *Handler) Logout(c *gin.Context) {
	token, err := c.Cookie(authplane.SessionCookieName)
	if err == nil && token != "" {
		if sess, err := h.Store.Auth.SessionByTokenHash(c.Request.Context(), authplane.HashToken(token)); err == nil && sess != nil {
			_ = h.Store.Auth.DeleteSession(c.Request.Context(), sess.ID)
		}
	}
	c.SetCookie(authplane.SessionCookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
