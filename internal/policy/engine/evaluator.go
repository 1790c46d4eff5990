// Package engine decides whether an actor may perform a privileged action. Table is the built-in
// decision table; OPAEvaluator evaluates the same rules written in Rego.
package engine

import (
	"context"
	"fmt"

	"registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/repository"
)

// Engine names accepted by New.
const (
	EngineTable = "table"
	EngineOPA   = "opa"
)

// Authorizer decides a single request. It returns nil when the action is allowed and an
// apperr.ErrForbidden-wrapped error carrying the rejection reason otherwise. Any other error means
// the decision could not be made and the caller must treat the action as denied.
type Authorizer interface {
	Authorize(ctx context.Context, req domain.Request) error
}

// New returns the authorizer selected by name. policyRepo is only used by the OPA engine and may be nil.
func New(ctx context.Context, name string, policyRepo repository.Repository) (Authorizer, error) {
	switch name {
	case "", EngineTable:
		return NewTable(), nil
	case EngineOPA:
		return NewOPAEvaluator(ctx, policyRepo)
	default:
		return nil, fmt.Errorf("unknown policy engine %q", name)
	}
}
