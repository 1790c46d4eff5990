package domain

import (
	"errors"
	"strings"
	"time"
)

// Identity is the authentication record for an account: credentials, role and account flags.
// Profile data lives separately (see profile/domain).
type Identity struct {
	ID             int64
	Email          string
	PasswordHash   string
	Role           Role
	ProfileCreated bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate validates the identity for persistence. Returns an error describing the first validation failure.
func (i *Identity) Validate() error {
	if i.Email == "" {
		return errors.New("email is required")
	}
	if i.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if !i.Role.Assignable() {
		return errors.New("role is not assignable")
	}
	return nil
}

// Role is one of a closed set of account roles. EDITOR and SUPPORT are siblings; the set is not
// totally ordered. SYSTEM is reserved for unauthenticated or automated actors and is never stored
// on an identity.
type Role string

const (
	RoleUser       Role = "USER"
	RoleEditor     Role = "EDITOR"
	RoleSupport    Role = "SUPPORT"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleSystem     Role = "SYSTEM"
)

// ErrUnknownRole is returned by ParseRole for strings outside the role set.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps s (case-insensitive, surrounding space ignored) to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is a member of the role set, including SYSTEM.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleSupport, RoleAdmin, RoleSuperAdmin, RoleSystem:
		return true
	default:
		return false
	}
}

// Assignable reports whether r may be held by an identity (every valid role except SYSTEM).
func (r Role) Assignable() bool {
	return r.Valid() && r != RoleSystem
}

func (r Role) String() string { return string(r) }
