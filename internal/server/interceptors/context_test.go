package interceptors

import (
	"context"
	"testing"

	"registration-backend/internal/identity/domain"
)

func TestWithCaller_SetsValues(t *testing.T) {
	ctx := WithCaller(context.Background(), "admin@x.com", domain.RoleAdmin)

	c, ok := GetCaller(ctx)
	if !ok {
		t.Fatal("GetCaller should return true")
	}
	if c.Email != "admin@x.com" {
		t.Errorf("email = %q, want %q", c.Email, "admin@x.com")
	}
	if c.Role != domain.RoleAdmin {
		t.Errorf("role = %q, want %q", c.Role, domain.RoleAdmin)
	}
}

func TestGetCaller_NotSet(t *testing.T) {
	if _, ok := GetCaller(context.Background()); ok {
		t.Error("GetCaller should return false when not set")
	}
	//nolint:staticcheck // nil context is tolerated on purpose
	if _, ok := GetCaller(nil); ok {
		t.Error("GetCaller should return false for nil context")
	}
}

func TestGetCaller_EmptyEmail(t *testing.T) {
	ctx := WithCaller(context.Background(), "", domain.RoleUser)
	if _, ok := GetCaller(ctx); ok {
		t.Error("GetCaller should return false for empty email")
	}
}

func TestWithCaller_Overrides(t *testing.T) {
	ctx := WithCaller(context.Background(), "a@x.com", domain.RoleUser)
	ctx = WithCaller(ctx, "b@x.com", domain.RoleSupport)
	c, _ := GetCaller(ctx)
	if c.Email != "b@x.com" || c.Role != domain.RoleSupport {
		t.Errorf("caller = %+v, want b@x.com/SUPPORT", c)
	}
}
