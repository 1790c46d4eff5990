package engine

import (
	"context"
	"strings"

	"registration-backend/internal/apperr"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/policy/domain"
)

var roleGated = map[domain.Action][]identitydomain.Role{
	domain.ActionPasswordReset:     {identitydomain.RoleSupport, identitydomain.RoleSuperAdmin},
	domain.ActionPasswordResetView: {identitydomain.RoleSupport, identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin},
	domain.ActionAuditView:         {identitydomain.RoleSuperAdmin},
	domain.ActionSessionAuditView:  {identitydomain.RoleSupport, identitydomain.RoleSuperAdmin},
	domain.ActionIdentityList:      {identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin, identitydomain.RoleEditor},
}

// Table is the built-in authorizer. It is stateless and safe for concurrent use.
type Table struct{}

// NewTable returns the built-in authorizer.
func NewTable() *Table {
	return &Table{}
}

// Authorize implements Authorizer.
func (Table) Authorize(_ context.Context, req domain.Request) error {
	if reason := decide(req); reason != "" {
		return apperr.Forbidden("%s", reason)
	}
	return nil
}

// decide returns the rejection reason for req, or "" when it is allowed.
func decide(req domain.Request) string {
	actor := req.Actor.Role
	switch {
	case actor == identitydomain.RoleSystem:
		return "SYSTEM actor is not permitted"
	case !actor.Valid():
		return "unknown actor role"
	case req.Action.Sensitive() && sameAccount(req):
		return "you cannot perform this action on your own account"
	}

	switch req.Action {
	case domain.ActionRoleChange:
		switch actor {
		case identitydomain.RoleAdmin:
			if !oneOf(req.Target.Role, identitydomain.RoleUser, identitydomain.RoleSupport) {
				return "ADMIN can modify only USER or SUPPORT accounts"
			}
			if !oneOf(req.NewRole, identitydomain.RoleUser, identitydomain.RoleSupport) {
				return "ADMIN can assign only USER or SUPPORT"
			}
			return ""
		case identitydomain.RoleSuperAdmin:
			if !oneOf(req.NewRole, identitydomain.RoleUser, identitydomain.RoleSupport, identitydomain.RoleAdmin, identitydomain.RoleEditor) {
				return "invalid role assignment"
			}
			return ""
		default:
			return "only ADMIN or SUPER_ADMIN can change roles"
		}

	case domain.ActionAccountActivate, domain.ActionAccountDeactivate, domain.ActionUserDelete:
		switch actor {
		case identitydomain.RoleAdmin:
			if oneOf(req.Target.Role, identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin) {
				return "ADMIN cannot manage ADMIN or SUPER_ADMIN accounts"
			}
			return ""
		case identitydomain.RoleSuperAdmin:
			return ""
		default:
			return "only ADMIN or SUPER_ADMIN can manage accounts"
		}

	case domain.ActionProfileCreate:
		if actor != identitydomain.RoleEditor && !sameAccount(req) {
			return "you can create only your own profile"
		}
		return ""
	}

	roles, ok := roleGated[req.Action]
	if !ok {
		return "unknown action"
	}
	if !oneOf(actor, roles...) {
		return "insufficient role"
	}
	return ""
}

func sameAccount(req domain.Request) bool {
	return strings.EqualFold(req.Actor.Email, req.Target.Email)
}

func oneOf(r identitydomain.Role, set ...identitydomain.Role) bool {
	for _, s := range set {
		if r == s {
			return true
		}
	}
	return false
}
