package authplane

import (
	"github.com/gin-gonic/gin"

	"github.com/hyperslack/talkto/internal/apperr"
)

// Current extracts the Principal a prior Middleware call attached to the
// gin context. Callers must run after Middleware.
func Current(c *gin.Context) Principal {
	p, _ := c.Get(string(principalContextKey))
	principal, _ := p.(Principal)
	return principal
}

// RequireUser aborts with Unauthenticated unless the principal resolved
// to a concrete user (human or agent), not the "no human onboarded yet"
// null-user bootstrap state.
func RequireUser(c *gin.Context) (Principal, bool) {
	p := Current(c)
	if p.UserID == "" {
		abort(c, apperr.NewUnauthenticated("no user resolved for this request"))
		return p, false
	}
	return p, true
}

// RequireAdmin aborts with Forbidden unless the principal's role is admin.
func RequireAdmin(c *gin.Context) (Principal, bool) {
	p := Current(c)
	if !p.IsAdmin() {
		abort(c, apperr.NewForbidden("admin role required"))
		return p, false
	}
	return p, true
}

// RequireSameWorkspace aborts with NotFound when a resource's workspace
// differs from the caller's — cross-workspace references are treated as
// missing, not forbidden, so as not to leak existence.
func RequireSameWorkspace(c *gin.Context, resourceWorkspaceID string) bool {
	p := Current(c)
	if p.WorkspaceID != resourceWorkspaceID {
		abort(c, apperr.NewNotFound("not found"))
		return false
	}
	return true
}

func abort(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"detail": apperr.Detail(err)})
}
