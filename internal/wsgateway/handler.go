package wsgateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades /ws connections, resolving the caller's identity via
// either a ?token= session cookie-equivalent or the Authorization bearer
// header (spec §4.3 "Authentication at upgrade"), then freezes
// (user_id, workspace_id) into the Client for the connection's lifetime.
func Handler(hub *Hub, st *store.Store, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := resolveUpgradeAuth(c, st)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "unauthenticated"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithError(err).Warn("ws upgrade failed")
			return
		}

		client := NewClient(hub, conn, principal.WorkspaceID, principal.UserID, log)
		hub.Accept(client)

		go client.WritePump()
		client.ReadPump()
	}
}

func resolveUpgradeAuth(c *gin.Context, st *store.Store) (authplane.Principal, bool) {
	if token := c.Query("token"); token != "" {
		sess, err := st.Auth.SessionByTokenHash(c.Request.Context(), authplane.HashToken(token))
		if err == nil && sess != nil {
			role, _, _ := st.Workspaces.MemberRole(c.Request.Context(), sess.WorkspaceID, sess.UserID)
			if role == "" {
				role = store.RoleMember
			}
			return authplane.Principal{UserID: sess.UserID, WorkspaceID: sess.WorkspaceID, Role: role}, true
		}
	}

	header := c.GetHeader("Authorization")
	const bearerPrefix = "Bearer "
	if len(header) > len(bearerPrefix) && header[:len(bearerPrefix)] == bearerPrefix {
		token := header[len(bearerPrefix):]
		if authplane.IsAPIKeyToken(token) {
			hash := authplane.HashToken(token)
			key, err := st.Auth.APIKeyByHash(c.Request.Context(), hash)
			if err == nil && key != nil {
				return authplane.Principal{WorkspaceID: key.WorkspaceID, Role: store.RoleAdmin}, true
			}
		}
	}

	return authplane.Principal{}, false
}
