package handler

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	identitydomain "registration-backend/internal/identity/domain"
	"registration-backend/internal/server/interceptors"
	"registration-backend/internal/session"
	"registration-backend/internal/session/domain"
)

type memRepo struct {
	entries []*domain.Entry
}

func (m *memRepo) Append(ctx context.Context, e *domain.Entry) error {
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memRepo) ListByEmailAndKind(ctx context.Context, email string, kind domain.Kind) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.Email == email && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) LatestByEmailAndKind(ctx context.Context, email string, kind domain.Kind) (*domain.Entry, error) {
	list, _ := m.ListByEmailAndKind(ctx, email, kind)
	if len(list) == 0 {
		return nil, nil
	}
	return list[len(list)-1], nil
}

func (m *memRepo) ListByEmail(ctx context.Context, email string) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for _, e := range m.entries {
		if e.Email == email {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memRepo) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	return m.entries, nil
}

func newServer() *Server {
	repo := &memRepo{}
	log := session.NewAuditLog(repo, nil)
	ctx := context.Background()
	now := time.Now()
	alice := &identitydomain.Identity{ID: 1, Email: "alice@x.com", Role: identitydomain.RoleUser}
	log.RecordLogin(ctx, alice, "tok-1", now, now.Add(time.Hour))
	log.RecordFailure(ctx, "bob@x.com", domain.ReasonInvalidPassword)
	return NewServer(log)
}

func TestServer_NilLog(t *testing.T) {
	srv := NewServer(nil)
	if _, err := srv.MyHistory(context.Background(), &HistoryRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("MyHistory: code = %v, want Unimplemented", status.Code(err))
	}
	if _, err := srv.ListAll(context.Background(), &HistoryRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("ListAll: code = %v, want Unimplemented", status.Code(err))
	}
}

func TestServer_MyHistory(t *testing.T) {
	srv := newServer()
	ctx := interceptors.WithCaller(context.Background(), "alice@x.com", identitydomain.RoleUser)
	resp, err := srv.MyHistory(ctx, &HistoryRequest{})
	if err != nil {
		t.Fatalf("MyHistory: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(resp.Entries))
	}
	if got := resp.Entries[0]; got.Kind != "LOGIN" || got.Reason != "LOGIN_SUCCESS" || got.TokenExpiresAt == nil {
		t.Errorf("entry = %+v", got)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "tok-1") || strings.Contains(string(raw), "tokenHash") {
		t.Errorf("response leaks token material: %s", raw)
	}
}

func TestServer_ListAll(t *testing.T) {
	srv := newServer()
	support := interceptors.WithCaller(context.Background(), "help@x.com", identitydomain.RoleSupport)
	resp, err := srv.ListAll(support, &HistoryRequest{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(resp.Entries))
	}

	user := interceptors.WithCaller(context.Background(), "alice@x.com", identitydomain.RoleUser)
	if _, err := srv.ListAll(user, &HistoryRequest{}); status.Code(err) != codes.PermissionDenied {
		t.Errorf("user ListAll: code = %v, want PermissionDenied", status.Code(err))
	}
	if _, err := srv.MyHistory(context.Background(), &HistoryRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Errorf("anonymous MyHistory: code = %v, want Unauthenticated", status.Code(err))
	}
}
