// Package service implements the privileged account operations: role changes, activation and
// deactivation, and profile deletion. Each attempt is authorized by the policy engine and leaves
// exactly one action audit entry, whether it succeeds or fails.
package service

import (
	"context"

	"registration-backend/internal/apperr"
	"registration-backend/internal/audit"
	auditdomain "registration-backend/internal/audit/domain"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/platform/rbac"
	policydomain "registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
	profiledomain "registration-backend/internal/profile/domain"
	"registration-backend/internal/server/interceptors"
)

// IdentityRepo is the minimal identity repository needed by the admin service.
type IdentityRepo interface {
	GetByID(ctx context.Context, id int64) (*identitydomain.Identity, error)
	List(ctx context.Context) ([]*identitydomain.Identity, error)
	UpdateRole(ctx context.Context, id int64, role identitydomain.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// ProfileRepo is the minimal profile repository needed by the admin service.
type ProfileRepo interface {
	GetByID(ctx context.Context, id int64) (*profiledomain.Profile, error)
	DeleteWithIdentity(ctx context.Context, profileID, identityID int64) error
}

// AdminService performs role and account-status changes on other identities.
type AdminService struct {
	identities IdentityRepo
	profiles   ProfileRepo
	authz      engine.Authorizer
	audit      audit.ActionRecorder
}

// NewAdminService returns an AdminService with the given dependencies.
func NewAdminService(identities IdentityRepo, profiles ProfileRepo, authz engine.Authorizer, recorder audit.ActionRecorder) *AdminService {
	return &AdminService{identities: identities, profiles: profiles, authz: authz, audit: recorder}
}

// identityState is the audited view of an identity. It never includes the password hash.
type identityState struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	Active         bool   `json:"active"`
	ProfileCreated bool   `json:"profileCreated"`
}

func stateOf(i *identitydomain.Identity) identityState {
	return identityState{ID: i.ID, Email: i.Email, Role: i.Role.String(), Active: i.Active, ProfileCreated: i.ProfileCreated}
}

// ChangeRoleNamed parses roleName and assigns it to the identity. An unknown role is a failed,
// audited attempt.
func (s *AdminService) ChangeRoleNamed(ctx context.Context, identityID int64, roleName string) (*identitydomain.Identity, error) {
	newRole, err := identitydomain.ParseRole(roleName)
	if err != nil {
		err = apperr.BadRequest("unknown role %q", roleName)
		s.audit.RecordFailure(ctx, auditdomain.ActionRoleChange, "", &identityID, apperr.Message(err))
		return nil, err
	}
	return s.ChangeRole(ctx, identityID, newRole)
}

// ChangeRole assigns newRole to the identity.
func (s *AdminService) ChangeRole(ctx context.Context, identityID int64, newRole identitydomain.Role) (*identitydomain.Identity, error) {
	const action = auditdomain.ActionRoleChange
	caller, err := s.requireCaller(ctx, action, &identityID)
	if err != nil {
		return nil, err
	}
	target, err := s.loadTarget(ctx, action, identityID)
	if err != nil {
		return nil, err
	}
	before := stateOf(target)
	err = s.authorize(ctx, caller, policydomain.ActionRoleChange, target, newRole)
	if err == nil {
		err = s.identities.UpdateRole(ctx, target.ID, newRole)
	}
	if err != nil {
		return nil, s.fail(ctx, action, target, err)
	}
	target.Role = newRole
	s.audit.RecordAction(ctx, action, auditdomain.OutcomeSuccess, target.Email, &target.ID,
		audit.Snapshot(before), audit.Snapshot(stateOf(target)), "")
	return target, nil
}

// SetActive activates or deactivates the identity. Deactivated identities cannot log in.
func (s *AdminService) SetActive(ctx context.Context, identityID int64, active bool) (*identitydomain.Identity, error) {
	action, policyAction := auditdomain.ActionAccountDeactivate, policydomain.ActionAccountDeactivate
	if active {
		action, policyAction = auditdomain.ActionAccountActivate, policydomain.ActionAccountActivate
	}
	caller, err := s.requireCaller(ctx, action, &identityID)
	if err != nil {
		return nil, err
	}
	target, err := s.loadTarget(ctx, action, identityID)
	if err != nil {
		return nil, err
	}
	before := stateOf(target)
	err = s.authorize(ctx, caller, policyAction, target, "")
	if err == nil {
		err = s.identities.SetActive(ctx, target.ID, active)
	}
	if err != nil {
		return nil, s.fail(ctx, action, target, err)
	}
	target.Active = active
	s.audit.RecordAction(ctx, action, auditdomain.OutcomeSuccess, target.Email, &target.ID,
		audit.Snapshot(before), audit.Snapshot(stateOf(target)), "")
	return target, nil
}

// DeleteProfile removes a profile and deactivates its identity in one transaction.
func (s *AdminService) DeleteProfile(ctx context.Context, profileID int64) error {
	const action = auditdomain.ActionUserDelete
	caller, err := s.requireCaller(ctx, action, nil)
	if err != nil {
		return err
	}
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err == nil && profile == nil {
		err = apperr.NotFound("profile %d not found", profileID)
	}
	if err != nil {
		s.audit.RecordFailure(ctx, action, "", nil, apperr.Message(err))
		return err
	}
	target, err := s.loadTarget(ctx, action, profile.IdentityID)
	if err != nil {
		return err
	}
	before := map[string]any{"identity": stateOf(target), "profile": profile}
	err = s.authorize(ctx, caller, policydomain.ActionUserDelete, target, "")
	if err == nil {
		err = s.profiles.DeleteWithIdentity(ctx, profile.ID, target.ID)
	}
	if err != nil {
		return s.fail(ctx, action, target, err)
	}
	target.Active = false
	target.ProfileCreated = false
	s.audit.RecordAction(ctx, action, auditdomain.OutcomeSuccess, target.Email, &target.ID,
		audit.Snapshot(before), audit.Snapshot(map[string]any{"identity": stateOf(target)}), "")
	return nil
}

// ListIdentities returns every identity. Callers must hold IDENTITY_LIST.
func (s *AdminService) ListIdentities(ctx context.Context) ([]*identitydomain.Identity, error) {
	if _, err := rbac.RequireAction(ctx, s.authz, policydomain.ActionIdentityList); err != nil {
		return nil, err
	}
	return s.identities.List(ctx)
}

// requireCaller resolves the caller. A missing caller is audited with the SYSTEM actor.
func (s *AdminService) requireCaller(ctx context.Context, action auditdomain.ActionType, targetID *int64) (interceptors.Caller, error) {
	caller, err := rbac.RequireCaller(ctx)
	if err != nil {
		s.audit.RecordFailure(ctx, action, "", targetID, apperr.Message(err))
		return interceptors.Caller{}, err
	}
	return caller, nil
}

// loadTarget returns the identity or a NotFound error; both lookup failures are audited.
func (s *AdminService) loadTarget(ctx context.Context, action auditdomain.ActionType, id int64) (*identitydomain.Identity, error) {
	target, err := s.identities.GetByID(ctx, id)
	if err == nil && target == nil {
		err = apperr.NotFound("identity %d not found", id)
	}
	if err != nil {
		s.audit.RecordFailure(ctx, action, "", &id, apperr.Message(err))
		return nil, err
	}
	return target, nil
}

func (s *AdminService) authorize(ctx context.Context, caller interceptors.Caller, action policydomain.Action, target *identitydomain.Identity, newRole identitydomain.Role) error {
	return rbac.Authorize(ctx, s.authz, caller, policydomain.Request{
		Action:  action,
		Target:  policydomain.Principal{Email: target.Email, Role: target.Role},
		NewRole: newRole,
	})
}

// fail records a FAILED entry for target and returns err unchanged.
func (s *AdminService) fail(ctx context.Context, action auditdomain.ActionType, target *identitydomain.Identity, err error) error {
	s.audit.RecordFailure(ctx, action, target.Email, &target.ID, apperr.Message(err))
	return err
}
