package goSession

import "context"

type userContextKey struct{}

// WithUser attaches the authenticated user to ctx. HTTP guards use it to hand the
// user to protected handlers.
func WithUser(ctx context.Context, u AuthenticatedUser) context.Context {
	u = u.Clone()
	return context.WithValue(ctx, userContextKey{}, &u)
}

// UserFromContext returns the user attached by WithUser.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	if ctx == nil {
		return AuthenticatedUser{}, false
	}
	u, _ := ctx.Value(userContextKey{}).(*AuthenticatedUser)
	if u == nil {
		return AuthenticatedUser{}, false
	}
	return u.Clone(), true
}
