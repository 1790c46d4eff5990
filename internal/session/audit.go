// Package session records login, logout, failure and password-change events and derives the
// "time since last session" greeting shown at login.
package session

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/platform/rbac"
	policydomain "registration-backend/internal/policy/domain"
	"registration-backend/internal/policy/engine"
	"registration-backend/internal/security"
	"registration-backend/internal/session/domain"
	sessionrepo "registration-backend/internal/session/repository"
	"registration-backend/internal/telemetry/metrics"
)

// AuditLog appends session audit entries. Record methods are best-effort: persistence failures are
// logged, counted and never returned, so they cannot change the outcome of a login or logout.
type AuditLog struct {
	repo  sessionrepo.Repository
	authz engine.Authorizer
	now   func() time.Time
}

// NewAuditLog returns an AuditLog persisting to repo. authz gates ListAll; it may be nil when the
// support view is not served.
func NewAuditLog(repo sessionrepo.Repository, authz engine.Authorizer) *AuditLog {
	return &AuditLog{repo: repo, authz: authz, now: time.Now}
}

// WithClock returns a copy of l that reads the current time from now.
func (l *AuditLog) WithClock(now func() time.Time) *AuditLog {
	cp := *l
	cp.now = now
	return &cp
}

// RecordLogin appends a LOGIN entry for a successful login. Only the token digest is stored.
func (l *AuditLog) RecordLogin(ctx context.Context, ident *identitydomain.Identity, token string, issuedAt, expiresAt time.Time) {
	l.append(ctx, &domain.Entry{
		Email:          ident.Email,
		Role:           ident.Role.String(),
		Kind:           domain.KindLogin,
		Reason:         domain.ReasonLoginSuccess,
		TokenHash:      security.HashToken(token),
		TokenIssuedAt:  &issuedAt,
		TokenExpiresAt: &expiresAt,
	})
}

// RecordLogout appends a LOGOUT entry for the session identified by token.
func (l *AuditLog) RecordLogout(ctx context.Context, ident *identitydomain.Identity, token string, issuedAt, expiresAt time.Time) {
	l.append(ctx, &domain.Entry{
		Email:          ident.Email,
		Role:           ident.Role.String(),
		Kind:           domain.KindLogout,
		Reason:         domain.ReasonUserLogout,
		TokenHash:      security.HashToken(token),
		TokenIssuedAt:  &issuedAt,
		TokenExpiresAt: &expiresAt,
	})
}

// RecordFailure appends a FAILED entry. email may be empty when it could not be resolved.
func (l *AuditLog) RecordFailure(ctx context.Context, email string, reason domain.Reason) {
	l.append(ctx, &domain.Entry{
		Email:  email,
		Kind:   domain.KindFailed,
		Reason: reason,
	})
}

// RecordPasswordChange appends a PASSWORD_CHANGED entry for every attempt. The reason tells a
// successful change apart from a rejected one.
func (l *AuditLog) RecordPasswordChange(ctx context.Context, email string, role identitydomain.Role, reason domain.Reason) {
	l.append(ctx, &domain.Entry{
		Email:  email,
		Role:   role.String(),
		Kind:   domain.KindPasswordChanged,
		Reason: reason,
	})
}

func (l *AuditLog) append(ctx context.Context, e *domain.Entry) {
	if l.repo == nil {
		return
	}
	e.ID = uuid.New().String()
	e.EventTime = l.now().UTC()
	if err := l.repo.Append(ctx, e); err != nil {
		metrics.AuditWriteFailed(metrics.SinkSession)
		log.Printf("session audit: failed to record %s/%s for %q: %v", e.Kind, e.Reason, e.Email, err)
	}
}

// CurrentUserHistory returns the caller's own entries, oldest first.
func (l *AuditLog) CurrentUserHistory(ctx context.Context) ([]*domain.Entry, error) {
	caller, err := rbac.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	return l.repo.ListByEmail(ctx, caller.Email)
}

// ListAll returns every entry, oldest first. Requires SESSION_AUDIT_VIEW.
func (l *AuditLog) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	if _, err := rbac.RequireAction(ctx, l.authorizer(), policydomain.ActionSessionAuditView); err != nil {
		return nil, err
	}
	return l.repo.ListAll(ctx)
}

func (l *AuditLog) authorizer() engine.Authorizer {
	if l.authz == nil {
		return engine.NewTable()
	}
	return l.authz
}
