// Package audit records the before/after trail of privileged administrative actions.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"registration-backend/internal/audit/domain"
	auditrepo "registration-backend/internal/audit/repository"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/telemetry/metrics"
)

// SystemActor is recorded as actor email and role when no authenticated caller is present.
const SystemActor = "SYSTEM"

// ActionRecorder writes one entry per attempted privileged action. Both methods are best-effort:
// failures are logged and never returned, so they cannot change the outcome of the action.
type ActionRecorder interface {
	RecordAction(ctx context.Context, actionType domain.ActionType, outcome domain.Outcome, targetEmail string, targetID *int64, before, after, reason string)
	RecordFailure(ctx context.Context, actionType domain.ActionType, targetEmail string, targetID *int64, reason string)
}

// Mirror receives a copy of every persisted entry, e.g. to export it as an OTel log record.
type Mirror interface {
	Mirror(ctx context.Context, e *domain.ActionEntry)
}

// Logger implements ActionRecorder using the audit repository and an optional mirror.
type Logger struct {
	repo   auditrepo.Repository
	mirror Mirror
	now    func() time.Time
}

// NewLogger returns a Logger that persists to repo. mirror may be nil.
func NewLogger(repo auditrepo.Repository, mirror Mirror) *Logger {
	return &Logger{repo: repo, mirror: mirror, now: time.Now}
}

// WithClock returns a copy of l that reads the current time from now.
func (l *Logger) WithClock(now func() time.Time) *Logger {
	cp := *l
	cp.now = now
	return &cp
}

// RecordAction writes one entry with the given outcome. The actor is the caller in ctx, or SYSTEM.
func (l *Logger) RecordAction(ctx context.Context, actionType domain.ActionType, outcome domain.Outcome, targetEmail string, targetID *int64, before, after, reason string) {
	defer func() {
		if r := recover(); r != nil {
			metrics.AuditWriteFailed(metrics.SinkAction)
			log.Printf("audit: panic while recording %s/%s: %v", actionType, outcome, r)
		}
	}()
	if l == nil || l.repo == nil {
		return
	}
	actorEmail, actorRole := actor(ctx)
	entry := &domain.ActionEntry{
		ID:           uuid.New().String(),
		ActorEmail:   actorEmail,
		ActorRole:    actorRole,
		TargetUserID: targetID,
		TargetEmail:  targetEmail,
		ActionType:   actionType,
		Outcome:      outcome,
		Reason:       reason,
		BeforeState:  before,
		AfterState:   after,
		PerformedAt:  l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		metrics.AuditWriteFailed(metrics.SinkAction)
		log.Printf("audit: failed to record %s/%s by %s on %q: %v", actionType, outcome, actorEmail, targetEmail, err)
		return
	}
	if l.mirror != nil {
		l.mirror.Mirror(ctx, entry)
	}
}

// RecordFailure writes a FAILED entry with empty snapshots.
func (l *Logger) RecordFailure(ctx context.Context, actionType domain.ActionType, targetEmail string, targetID *int64, reason string) {
	l.RecordAction(ctx, actionType, domain.OutcomeFailed, targetEmail, targetID, "", "", reason)
}

func actor(ctx context.Context) (email, role string) {
	c, ok := interceptors.GetCaller(ctx)
	if !ok {
		return SystemActor, string(identitydomain.RoleSystem)
	}
	if c.Role == "" {
		return c.Email, string(identitydomain.RoleSystem)
	}
	return c.Email, string(c.Role)
}

// Snapshot renders v as JSON for BeforeState/AfterState. A nil value or an encoding failure yields "".
func Snapshot(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("audit: snapshot encoding failed: %v", err)
		return ""
	}
	return string(b)
}
