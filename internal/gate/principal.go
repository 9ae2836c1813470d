package gate

import "context"

// Principal is the authenticated caller.
type Principal struct {
	UserID      string
	WorkspaceID string
	Email       string
	Role        string
	// Method names the authenticator that accepted the request ("jwt", "oidc").
	Method string
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
