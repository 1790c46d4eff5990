package audit

import (
	"context"
	"time"

	"registration-backend/internal/apperr"
	"registration-backend/internal/audit/domain"
	auditrepo "registration-backend/internal/audit/repository"
	"registration-backend/internal/platform/rbac"
	policydomain "registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
)

// QueryService is the read side of the action audit trail. Every query requires AUDIT_VIEW.
type QueryService struct {
	repo  auditrepo.Repository
	authz engine.Authorizer
}

// NewQueryService returns a QueryService reading from repo.
func NewQueryService(repo auditrepo.Repository, authz engine.Authorizer) *QueryService {
	return &QueryService{repo: repo, authz: authz}
}

// All returns every entry, newest first.
func (s *QueryService) All(ctx context.Context) ([]*domain.ActionEntry, error) {
	return s.list(ctx, auditrepo.Filter{})
}

// ByType returns entries for one action type.
func (s *QueryService) ByType(ctx context.Context, t domain.ActionType) ([]*domain.ActionEntry, error) {
	return s.list(ctx, auditrepo.Filter{ActionType: t})
}

// ByOutcome returns entries with one outcome.
func (s *QueryService) ByOutcome(ctx context.Context, o domain.Outcome) ([]*domain.ActionEntry, error) {
	return s.list(ctx, auditrepo.Filter{Outcome: o})
}

// ByTypeAndOutcome returns entries matching both the action type and the outcome.
func (s *QueryService) ByTypeAndOutcome(ctx context.Context, t domain.ActionType, o domain.Outcome) ([]*domain.ActionEntry, error) {
	return s.list(ctx, auditrepo.Filter{ActionType: t, Outcome: o})
}

// ByRange returns entries performed between from and to, both inclusive.
func (s *QueryService) ByRange(ctx context.Context, from, to time.Time) ([]*domain.ActionEntry, error) {
	if _, err := rbac.RequireAction(ctx, s.authz, policydomain.ActionAuditView); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperr.BadRequest("from must not be after to")
	}
	return s.repo.List(ctx, auditrepo.Filter{From: &from, To: &to})
}

func (s *QueryService) list(ctx context.Context, f auditrepo.Filter) ([]*domain.ActionEntry, error) {
	if _, err := rbac.RequireAction(ctx, s.authz, policydomain.ActionAuditView); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}
