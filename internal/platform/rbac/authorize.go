package rbac

import (
	"context"
	"errors"
	"log"

	"registration-backend/internal/apperr"
	"registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/telemetry/metrics"
)

// Authorize fills req.Actor from the caller and asks authz for a decision. Every decision is counted;
// evaluation failures are logged and returned unchanged so the action is denied.
func Authorize(ctx context.Context, authz engine.Authorizer, caller interceptors.Caller, req domain.Request) error {
	req.Actor = domain.Principal{Email: caller.Email, Role: caller.Role}
	err := authz.Authorize(ctx, req)
	metrics.PolicyDecision(string(req.Action), err == nil)
	if err != nil && !errors.Is(err, apperr.ErrForbidden) {
		log.Printf("rbac: policy evaluation failed action=%s actor=%s: %v", req.Action, caller.Email, err)
	}
	return err
}

// RequireAction resolves the caller and checks an action that has no target account.
func RequireAction(ctx context.Context, authz engine.Authorizer, action domain.Action) (interceptors.Caller, error) {
	caller, err := RequireCaller(ctx)
	if err != nil {
		return interceptors.Caller{}, err
	}
	if err := Authorize(ctx, authz, caller, domain.Request{Action: action}); err != nil {
		return interceptors.Caller{}, err
	}
	return caller, nil
}
