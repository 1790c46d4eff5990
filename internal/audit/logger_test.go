package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"registration-backend/internal/audit/domain"
	auditrepo "registration-backend/internal/audit/repository"
	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/server/interceptors"
)

// mockAuditRepo implements the audit repository interface for tests.
type mockAuditRepo struct {
	mu        sync.Mutex
	entries   []*domain.ActionEntry
	createErr error
	lastList  auditrepo.Filter
}

func (m *mockAuditRepo) GetByID(ctx context.Context, id string) (*domain.ActionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (m *mockAuditRepo) List(ctx context.Context, f auditrepo.Filter) ([]*domain.ActionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	var out []*domain.ActionEntry
	for _, e := range m.entries {
		if f.ActionType != "" && e.ActionType != f.ActionType {
			continue
		}
		if f.Outcome != "" && e.Outcome != f.Outcome {
			continue
		}
		if f.From != nil && e.PerformedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.PerformedAt.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockAuditRepo) Create(ctx context.Context, e *domain.ActionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, e)
	return nil
}

type captureMirror struct {
	got []*domain.ActionEntry
}

func (c *captureMirror) Mirror(ctx context.Context, e *domain.ActionEntry) {
	c.got = append(c.got, e)
}

func TestLogger_RecordAction_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	mirror := &captureMirror{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	logger := NewLogger(repo, mirror).WithClock(func() time.Time { return now })
	ctx := interceptors.WithCaller(context.Background(), "admin@x.com", identitydomain.RoleAdmin)
	target := int64(42)

	logger.RecordAction(ctx, domain.ActionRoleChange, domain.OutcomeSuccess, "alice@x.com", &target,
		Snapshot(map[string]string{"role": "USER"}), Snapshot(map[string]string{"role": "SUPPORT"}), "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ActorEmail != "admin@x.com" || e.ActorRole != "ADMIN" {
		t.Errorf("actor = %s/%s, want admin@x.com/ADMIN", e.ActorEmail, e.ActorRole)
	}
	if e.TargetUserID == nil || *e.TargetUserID != 42 {
		t.Errorf("target id = %v, want 42", e.TargetUserID)
	}
	if e.BeforeState != `{"role":"USER"}` || e.AfterState != `{"role":"SUPPORT"}` {
		t.Errorf("snapshots = %q -> %q", e.BeforeState, e.AfterState)
	}
	if !e.PerformedAt.Equal(now) {
		t.Errorf("performed at = %v, want %v", e.PerformedAt, now)
	}
	if e.ID == "" {
		t.Error("entry ID should be set")
	}
	if len(mirror.got) != 1 || mirror.got[0] != e {
		t.Errorf("mirror got %d entries, want the persisted entry", len(mirror.got))
	}
}

func TestLogger_RecordAction_NoCallerUsesSystem(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).RecordFailure(context.Background(), domain.ActionPasswordReset, "bob@x.com", nil, "request not found")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ActorEmail != "SYSTEM" || e.ActorRole != "SYSTEM" {
		t.Errorf("actor = %s/%s, want SYSTEM/SYSTEM", e.ActorEmail, e.ActorRole)
	}
	if e.Outcome != domain.OutcomeFailed || e.Reason != "request not found" {
		t.Errorf("outcome/reason = %s/%q", e.Outcome, e.Reason)
	}
	if e.BeforeState != "" || e.AfterState != "" {
		t.Error("failure entries have empty snapshots")
	}
}

func TestLogger_RecordAction_EmptyRoleUsesSystemRole(t *testing.T) {
	repo := &mockAuditRepo{}
	ctx := interceptors.WithCaller(context.Background(), "svc@x.com", "")
	NewLogger(repo, nil).RecordFailure(ctx, domain.ActionUserDelete, "", nil, "x")
	if e := repo.entries[0]; e.ActorEmail != "svc@x.com" || e.ActorRole != "SYSTEM" {
		t.Errorf("actor = %s/%s, want svc@x.com/SYSTEM", e.ActorEmail, e.ActorRole)
	}
}

func TestLogger_RecordAction_RepoErrorIsSwallowed(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db error")}
	mirror := &captureMirror{}
	logger := NewLogger(repo, mirror)

	logger.RecordAction(context.Background(), domain.ActionUserDelete, domain.OutcomeSuccess, "a@x.com", nil, "", "", "")

	if len(mirror.got) != 0 {
		t.Error("entries that were not persisted must not be mirrored")
	}
}

type panicRepo struct{ mockAuditRepo }

func (p *panicRepo) Create(ctx context.Context, e *domain.ActionEntry) error { panic("boom") }

func TestLogger_RecordAction_NeverPanics(t *testing.T) {
	NewLogger(&panicRepo{}, nil).RecordFailure(context.Background(), domain.ActionRoleChange, "", nil, "x")
}

func TestLogger_NilRepo(t *testing.T) {
	NewLogger(nil, nil).RecordFailure(context.Background(), domain.ActionRoleChange, "", nil, "x")
	var l *Logger
	l.RecordFailure(context.Background(), domain.ActionRoleChange, "", nil, "x")
}

func TestSnapshot(t *testing.T) {
	if got := Snapshot(nil); got != "" {
		t.Errorf("Snapshot(nil) = %q, want empty", got)
	}
	if got := Snapshot(struct {
		Role   string `json:"role"`
		Active bool   `json:"active"`
	}{"USER", true}); got != `{"role":"USER","active":true}` {
		t.Errorf("Snapshot = %q", got)
	}
	if got := Snapshot(make(chan int)); got != "" {
		t.Errorf("unencodable value should give empty snapshot, got %q", got)
	}
}
