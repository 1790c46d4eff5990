package interceptors

import (
	"context"

	"registration-backend/internal/identity/domain"
)

type contextKey struct{ name string }

var callerKey = contextKey{"caller"}

// Caller is the authenticated actor of a request: the token subject and its role claim.
type Caller struct {
	Email string
	Role  domain.Role
}

// WithCaller returns a context carrying the caller's email and role.
// Services read it via GetCaller instead of any ambient security state.
func WithCaller(ctx context.Context, email string, role domain.Role) context.Context {
	return context.WithValue(ctx, callerKey, Caller{Email: email, Role: role})
}

// GetCaller returns the caller from context and true if one with a non-empty email is set;
// otherwise a zero Caller and false. A nil context has no caller.
func GetCaller(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	c, ok := ctx.Value(callerKey).(Caller)
	if !ok || c.Email == "" {
		return Caller{}, false
	}
	return c, true
}
