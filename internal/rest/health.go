package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok", "service": "talkto"})
}
