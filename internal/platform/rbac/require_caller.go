// Package rbac resolves the authenticated caller and checks it against the authorization policy.
package rbac

import (
	"context"

	"registration-backend/internal/apperr"
	"registration-backend/internal/server/interceptors"
)

// RequireCaller returns the authenticated caller from ctx, or an apperr.ErrUnauthenticated error
// when the request carries no caller.
func RequireCaller(ctx context.Context) (interceptors.Caller, error) {
	c, ok := interceptors.GetCaller(ctx)
	if !ok {
		return interceptors.Caller{}, apperr.Unauthenticated("authenticated caller required")
	}
	return c, nil
}
