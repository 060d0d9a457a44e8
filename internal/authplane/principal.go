package authplane

import (
	"context"

	"github.com/hyperslack/talkto/internal/store"
)

type contextKey string

const principalContextKey contextKey = "talkto_principal"

// Principal is the (user_id?, workspace_id, role) triple resolved for
// every inbound request, per spec §4.1.
type Principal struct {
	UserID      string // empty when unauthenticated-but-bootstrapping (onboarding)
	WorkspaceID string
	Role        store.Role
}

func (p Principal) IsAdmin() bool { return p.Role == store.RoleAdmin }

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	return p, ok
}
