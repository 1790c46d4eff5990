package domain

import "time"

// Kind classifies a session audit entry.
type Kind string

const (
	KindLogin           Kind = "LOGIN"
	KindLogout          Kind = "LOGOUT"
	KindFailed          Kind = "FAILED"
	KindPasswordChanged Kind = "PASSWORD_CHANGED"
)

// Reason records why a session audit entry was written.
type Reason string

const (
	ReasonLoginSuccess           Reason = "LOGIN_SUCCESS"
	ReasonUserLogout             Reason = "USER_LOGOUT"
	ReasonEmailNotFound          Reason = "EMAIL_NOT_FOUND"
	ReasonInvalidPassword        Reason = "INVALID_PASSWORD"
	ReasonUserDisabled           Reason = "USER_DISABLED"
	ReasonInvalidCurrentPassword Reason = "INVALID_CURRENT_PASSWORD"
	ReasonSamePasswordReuse      Reason = "SAME_PASSWORD_REUSE"
	ReasonPasswordChanged        Reason = "PASSWORD_CHANGED_SUCCESS"
)

// Entry is one append-only row of the session audit trail.
// Token fields are only set for LOGIN and LOGOUT entries; the raw token is never stored.
type Entry struct {
	ID             string
	Email          string // empty when the login email could not be resolved
	Role           string
	EventTime      time.Time
	Kind           Kind
	Reason         Reason
	TokenHash      string
	TokenIssuedAt  *time.Time
	TokenExpiresAt *time.Time
}

// GreetingKind tells a client which welcome message variant was chosen at login.
type GreetingKind string

const (
	GreetingFirstLogin     GreetingKind = "FIRST_LOGIN"
	GreetingNormal         GreetingKind = "NORMAL"
	GreetingSessionTimeout GreetingKind = "SESSION_TIMEOUT"
)

// Greeting is the "time since last session" message returned with a successful login.
type Greeting struct {
	Kind         GreetingKind
	Message      string
	LastLogoutAt *time.Time // set only for GreetingNormal
	Elapsed      string     // formatted elapsed time, set only for GreetingNormal
}
