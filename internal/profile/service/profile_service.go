package service

import (
	"context"
	"strings"
	"time"

	"registration-backend/internal/apperr"
	"registration-backend/internal/audit"
	auditdomain "registration-backend/internal/audit/domain"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/platform/rbac"
	policydomain "registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
	"registration-backend/internal/profile/domain"
	"registration-backend/internal/server/interceptors"
)

// IdentityRepo is the minimal identity repository needed by the profile service.
type IdentityRepo interface {
	GetByID(ctx context.Context, id int64) (*identitydomain.Identity, error)
}

// ProfileRepo is the minimal profile repository needed by the profile service.
type ProfileRepo interface {
	Create(ctx context.Context, p *domain.Profile) error
}

// ProfileService creates the one-time profile for an identity.
type ProfileService struct {
	identities IdentityRepo
	profiles   ProfileRepo
	authz      engine.Authorizer
	audit      audit.ActionRecorder
	now        func() time.Time
}

// NewProfileService returns a ProfileService with the given dependencies.
func NewProfileService(identities IdentityRepo, profiles ProfileRepo, authz engine.Authorizer, recorder audit.ActionRecorder) *ProfileService {
	return &ProfileService{identities: identities, profiles: profiles, authz: authz, audit: recorder, now: time.Now}
}

// CreateProfile creates the profile for identityID. EDITOR may create profiles for anyone; other
// roles only for their own account. Every attempt is written to the action audit.
func (s *ProfileService) CreateProfile(ctx context.Context, identityID int64, in domain.Profile) (*domain.Profile, error) {
	caller, err := rbac.RequireCaller(ctx)
	if err != nil {
		s.audit.RecordFailure(ctx, auditdomain.ActionProfileCreate, "", &identityID, apperr.Message(err))
		return nil, err
	}
	target, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		s.audit.RecordFailure(ctx, auditdomain.ActionProfileCreate, "", &identityID, apperr.Message(err))
		return nil, err
	}
	if target == nil {
		err := apperr.NotFound("identity %d not found", identityID)
		s.audit.RecordFailure(ctx, auditdomain.ActionProfileCreate, "", &identityID, apperr.Message(err))
		return nil, err
	}

	p, err := s.create(ctx, caller, target, in)
	if err != nil {
		s.audit.RecordFailure(ctx, auditdomain.ActionProfileCreate, target.Email, &target.ID, apperr.Message(err))
		return nil, err
	}
	s.audit.RecordAction(ctx, auditdomain.ActionProfileCreate, auditdomain.OutcomeSuccess, target.Email, &target.ID,
		audit.Snapshot(map[string]any{"profileCreated": false}),
		audit.Snapshot(p), "")
	return p, nil
}

func (s *ProfileService) create(ctx context.Context, caller interceptors.Caller, target *identitydomain.Identity, in domain.Profile) (*domain.Profile, error) {
	err := rbac.Authorize(ctx, s.authz, caller, policydomain.Request{
		Action: policydomain.ActionProfileCreate,
		Target: policydomain.Principal{Email: target.Email, Role: target.Role},
	})
	if err != nil {
		return nil, err
	}
	if target.ProfileCreated {
		return nil, apperr.BadRequest("profile already created for %s", target.Email)
	}
	p := &domain.Profile{
		IdentityID: target.ID,
		Name:       strings.TrimSpace(in.Name),
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		CreatedAt:  s.now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
