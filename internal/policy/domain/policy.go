package domain

import (
	"time"

	identitydomain "registration-backend/internal/identity/domain"
)

// Action names a privileged operation checked by the authorizer.
type Action string

const (
	ActionRoleChange        Action = "ROLE_CHANGE"
	ActionAccountActivate   Action = "ACCOUNT_ACTIVATE"
	ActionAccountDeactivate Action = "ACCOUNT_DEACTIVATE"
	ActionUserDelete        Action = "USER_DELETE"
	ActionProfileCreate     Action = "PROFILE_CREATE"
	ActionPasswordReset     Action = "PASSWORD_RESET"
	ActionPasswordResetView Action = "PASSWORD_RESET_VIEW"
	ActionAuditView         Action = "AUDIT_VIEW"
	ActionSessionAuditView  Action = "SESSION_AUDIT_VIEW"
	ActionIdentityList      Action = "IDENTITY_LIST"
)

// Sensitive reports whether a is a mutation that may never target the actor's own account.
func (a Action) Sensitive() bool {
	switch a {
	case ActionRoleChange, ActionAccountActivate, ActionAccountDeactivate, ActionUserDelete:
		return true
	}
	return false
}

// Principal is an account taking part in an authorization decision.
type Principal struct {
	Email string
	Role  identitydomain.Role
}

// Request is the input to an authorization decision. Target is zero for actions without a target
// account; NewRole is only meaningful for ROLE_CHANGE.
type Request struct {
	Action  Action
	Actor   Principal
	Target  Principal
	NewRole identitydomain.Role
}

// Policy is a stored Rego module that replaces the built-in authorization policy when enabled.
type Policy struct {
	ID        string
	Name      string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}
