package engine

import (
	"context"
	"errors"
	"testing"

	"registration-backend/internal/apperr"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/policy/domain"
)

var allRoles = []identitydomain.Role{
	identitydomain.RoleUser,
	identitydomain.RoleEditor,
	identitydomain.RoleSupport,
	identitydomain.RoleAdmin,
	identitydomain.RoleSuperAdmin,
	identitydomain.RoleSystem,
}

var allActions = []domain.Action{
	domain.ActionRoleChange,
	domain.ActionAccountActivate,
	domain.ActionAccountDeactivate,
	domain.ActionUserDelete,
	domain.ActionProfileCreate,
	domain.ActionPasswordReset,
	domain.ActionPasswordResetView,
	domain.ActionAuditView,
	domain.ActionSessionAuditView,
	domain.ActionIdentityList,
}

func req(action domain.Action, actor identitydomain.Role, target identitydomain.Role, newRole identitydomain.Role) domain.Request {
	return domain.Request{
		Action:  action,
		Actor:   domain.Principal{Email: "actor@x.com", Role: actor},
		Target:  domain.Principal{Email: "target@x.com", Role: target},
		NewRole: newRole,
	}
}

func TestTable_SelfTargetingSensitiveMutationForbidden(t *testing.T) {
	tbl := NewTable()
	for _, action := range allActions {
		if !action.Sensitive() {
			continue
		}
		for _, role := range allRoles {
			r := domain.Request{
				Action:  action,
				Actor:   domain.Principal{Email: "same@x.com", Role: role},
				Target:  domain.Principal{Email: "Same@X.com", Role: identitydomain.RoleUser},
				NewRole: identitydomain.RoleSupport,
			}
			err := tbl.Authorize(context.Background(), r)
			if !errors.Is(err, apperr.ErrForbidden) {
				t.Errorf("%s by %s on self: err = %v, want Forbidden", action, role, err)
			}
		}
	}
}

func TestTable_RoleChange(t *testing.T) {
	u, e, s, a, sa, sys := identitydomain.RoleUser, identitydomain.RoleEditor, identitydomain.RoleSupport,
		identitydomain.RoleAdmin, identitydomain.RoleSuperAdmin, identitydomain.RoleSystem
	tests := []struct {
		name    string
		actor   identitydomain.Role
		target  identitydomain.Role
		newRole identitydomain.Role
		allowed bool
		reason  string
	}{
		{"admin promotes user to support", a, u, s, true, ""},
		{"admin demotes support to user", a, s, u, true, ""},
		{"admin assigns admin", a, u, a, false, "ADMIN can assign only USER or SUPPORT"},
		{"admin assigns super admin", a, u, sa, false, "ADMIN can assign only USER or SUPPORT"},
		{"admin assigns editor", a, u, e, false, "ADMIN can assign only USER or SUPPORT"},
		{"admin modifies editor", a, e, u, false, "ADMIN can modify only USER or SUPPORT accounts"},
		{"admin modifies admin", a, a, u, false, "ADMIN can modify only USER or SUPPORT accounts"},
		{"super admin assigns admin", sa, u, a, true, ""},
		{"super admin assigns editor", sa, s, e, true, ""},
		{"super admin demotes admin", sa, a, u, true, ""},
		{"super admin assigns super admin", sa, u, sa, false, "invalid role assignment"},
		{"super admin assigns system", sa, u, sys, false, "invalid role assignment"},
		{"super admin assigns unknown", sa, u, "ROOT", false, "invalid role assignment"},
		{"user", u, u, s, false, "only ADMIN or SUPER_ADMIN can change roles"},
		{"editor", e, u, s, false, "only ADMIN or SUPER_ADMIN can change roles"},
		{"support", s, u, s, false, "only ADMIN or SUPER_ADMIN can change roles"},
		{"system", sys, u, s, false, "SYSTEM actor is not permitted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTable().Authorize(context.Background(), req(domain.ActionRoleChange, tt.actor, tt.target, tt.newRole))
			if tt.allowed {
				if err != nil {
					t.Fatalf("Authorize: %v", err)
				}
				return
			}
			if !errors.Is(err, apperr.ErrForbidden) {
				t.Fatalf("err = %v, want Forbidden", err)
			}
			if got := apperr.Message(err); got != tt.reason {
				t.Errorf("reason = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestTable_AccountActions(t *testing.T) {
	for _, action := range []domain.Action{domain.ActionAccountActivate, domain.ActionAccountDeactivate, domain.ActionUserDelete} {
		for _, actor := range allRoles {
			for _, target := range allRoles[:5] {
				err := NewTable().Authorize(context.Background(), req(action, actor, target, ""))
				var want bool
				switch actor {
				case identitydomain.RoleSuperAdmin:
					want = true
				case identitydomain.RoleAdmin:
					want = target != identitydomain.RoleAdmin && target != identitydomain.RoleSuperAdmin
				}
				if got := err == nil; got != want {
					t.Errorf("%s by %s on %s: allowed = %v, want %v (err=%v)", action, actor, target, got, want, err)
				}
			}
		}
	}
}

func TestTable_ProfileCreate(t *testing.T) {
	tbl := NewTable()
	for _, role := range allRoles {
		own := domain.Request{
			Action: domain.ActionProfileCreate,
			Actor:  domain.Principal{Email: "me@x.com", Role: role},
			Target: domain.Principal{Email: "me@x.com", Role: role},
		}
		err := tbl.Authorize(context.Background(), own)
		if role == identitydomain.RoleSystem {
			if err == nil {
				t.Error("SYSTEM must not create profiles")
			}
			continue
		}
		if err != nil {
			t.Errorf("%s creating own profile: %v", role, err)
		}

		other := req(domain.ActionProfileCreate, role, identitydomain.RoleUser, "")
		err = tbl.Authorize(context.Background(), other)
		if role == identitydomain.RoleEditor {
			if err != nil {
				t.Errorf("EDITOR creating another profile: %v", err)
			}
		} else if !errors.Is(err, apperr.ErrForbidden) {
			t.Errorf("%s creating another profile: err = %v, want Forbidden", role, err)
		}
	}
}

func TestTable_RoleGatedActions(t *testing.T) {
	want := map[domain.Action]map[identitydomain.Role]bool{
		domain.ActionPasswordReset:     {identitydomain.RoleSupport: true, identitydomain.RoleSuperAdmin: true},
		domain.ActionPasswordResetView: {identitydomain.RoleSupport: true, identitydomain.RoleAdmin: true, identitydomain.RoleSuperAdmin: true},
		domain.ActionAuditView:         {identitydomain.RoleSuperAdmin: true},
		domain.ActionSessionAuditView:  {identitydomain.RoleSupport: true, identitydomain.RoleSuperAdmin: true},
		domain.ActionIdentityList:      {identitydomain.RoleAdmin: true, identitydomain.RoleSuperAdmin: true, identitydomain.RoleEditor: true},
	}
	for action, allowed := range want {
		for _, role := range allRoles {
			err := NewTable().Authorize(context.Background(), domain.Request{
				Action: action,
				Actor:  domain.Principal{Email: "a@x.com", Role: role},
			})
			if got := err == nil; got != allowed[role] {
				t.Errorf("%s by %s: allowed = %v, want %v", action, role, got, allowed[role])
			}
		}
	}
}

func TestTable_UnknownInputs(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Authorize(context.Background(), req("LAUNCH_MISSILES", identitydomain.RoleSuperAdmin, "", "")); apperr.Message(err) != "unknown action" {
		t.Errorf("unknown action: err = %v", err)
	}
	if err := tbl.Authorize(context.Background(), req(domain.ActionAuditView, "", "", "")); apperr.Message(err) != "unknown actor role" {
		t.Errorf("empty actor role: err = %v", err)
	}
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("New default: %v", err)
	}
	if _, ok := a.(*Table); !ok {
		t.Errorf("default engine = %T, want *Table", a)
	}
	a, err = New(context.Background(), EngineOPA, nil)
	if err != nil {
		t.Fatalf("New opa: %v", err)
	}
	if _, ok := a.(*OPAEvaluator); !ok {
		t.Errorf("opa engine = %T, want *OPAEvaluator", a)
	}
	if _, err := New(context.Background(), "casbin", nil); err == nil {
		t.Error("unknown engine should fail")
	}
}
