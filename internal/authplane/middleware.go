package authplane

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/common/logger"
	"github.com/hyperslack/talkto/internal/store"
)

const SessionCookieName = "talkto_session"

// publicPaths skip auth entirely, per spec §4.1.
var publicPaths = map[string]bool{
	"/api/health":        true,
	"/api/users/onboard": true,
}

func isPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	return strings.HasPrefix(path, "/api/join/")
}

// Middleware resolves the request's Principal via the three auth sources
// in order (cookie session, bearer API key, localhost bypass) and stores
// it on the gin context. In network mode, failure of all three is
// Unauthenticated; outside network mode the localhost bypass always
// succeeds for loopback clients.
func Middleware(st *store.Store, network bool, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		principal, ok := resolveCookieSession(c, st)
		if !ok {
			principal, ok = resolveAPIKey(c, st)
		}
		if !ok && !network {
			principal, ok = resolveLocalhostBypass(c, st)
		}
		if !ok {
			c.AbortWithStatusJSON(apperr.Status(apperr.NewUnauthenticated("unauthenticated")),
				gin.H{"detail": apperr.Detail(apperr.NewUnauthenticated("unauthenticated"))})
			return
		}

		ctx := WithPrincipal(c.Request.Context(), principal)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(principalContextKey), principal)
		c.Next()
	}
}

func resolveCookieSession(c *gin.Context, st *store.Store) (Principal, bool) {
	token, err := c.Cookie(SessionCookieName)
	if err != nil || token == "" {
		return Principal{}, false
	}
	sess, err := st.Auth.SessionByTokenHash(c.Request.Context(), HashToken(token))
	if err != nil || sess == nil {
		return Principal{}, false
	}
	_ = st.Auth.TouchSession(c.Request.Context(), sess.ID)

	role, _, _ := st.Workspaces.MemberRole(c.Request.Context(), sess.WorkspaceID, sess.UserID)
	if role == "" {
		role = store.RoleMember
	}
	return Principal{UserID: sess.UserID, WorkspaceID: sess.WorkspaceID, Role: role}, true
}

func resolveAPIKey(c *gin.Context, st *store.Store) (Principal, bool) {
	header := c.GetHeader("Authorization")
	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(header, bearerPrefix) {
		return Principal{}, false
	}
	token := strings.TrimPrefix(header, bearerPrefix)
	if !IsAPIKeyToken(token) {
		return Principal{}, false
	}
	hash := HashToken(token)
	key, err := st.Auth.APIKeyByHash(c.Request.Context(), hash)
	if err != nil || key == nil || !EqualHash(key.KeyHash, hash) {
		return Principal{}, false
	}
	_ = st.Auth.TouchAPIKey(c.Request.Context(), key.ID)
	return Principal{UserID: "", WorkspaceID: key.WorkspaceID, Role: store.RoleAdmin}, true
}

func resolveLocalhostBypass(c *gin.Context, st *store.Store) (Principal, bool) {
	if !isLoopback(c.Request) {
		return Principal{}, false
	}
	human, err := st.Workspaces.SoleHuman(c.Request.Context(), store.DefaultWorkspaceID)
	if err != nil {
		return Principal{}, false
	}
	userID := ""
	if human != nil {
		userID = human.ID
	}
	return Principal{UserID: userID, WorkspaceID: store.DefaultWorkspaceID, Role: store.RoleAdmin}, true
}

func isLoopback(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// NewSession builds a browser session with a fresh token, returning the
// plaintext token (only ever available at creation time per I6) and the
// session row; it does not store the row.
func NewSession(st *store.Store, userID, workspaceID string, ttl time.Duration) (string, *store.UserSession, error) {
	token, err := GenerateToken(SessionTokenPrefix)
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	sess := &store.UserSession{
		ID:          newID(),
		UserID:      userID,
		TokenHash:   HashToken(token),
		WorkspaceID: workspaceID,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	return token, sess, nil
}
