package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"registration-backend/internal/passwordreset/domain"
)

var requestCols = []string{"id", "identity_id", "email", "status", "temp_password_plain", "temp_password_hash",
	"approved_by", "requested_at", "approved_at", "password_sent_at", "remarks"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO password_reset_requests").
		WithArgs(int64(4), "alice@x.com", "REQUESTED", now, "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	req := &domain.Request{IdentityID: 4, Email: "alice@x.com", Status: domain.StatusRequested, RequestedAt: now}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if req.ID != 7 {
		t.Errorf("ID = %d, want 7", req.ID)
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	approved := now.Add(time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM password_reset_requests WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(requestCols).
			AddRow(int64(7), int64(4), "alice@x.com", "ACCEPTED", "Tmp1234567", "hash", "help@x.com", now, approved, nil, ""))

	req, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if req.Status != domain.StatusAccepted || req.TempPasswordPlain != "Tmp1234567" || req.ApprovedBy != "help@x.com" {
		t.Errorf("request = %+v", req)
	}
	if req.ApprovedAt == nil || !req.ApprovedAt.Equal(approved) {
		t.Errorf("ApprovedAt = %v, want %v", req.ApprovedAt, approved)
	}
	if req.PasswordSentAt != nil {
		t.Errorf("PasswordSentAt = %v, want nil", req.PasswordSentAt)
	}
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM password_reset_requests").WillReturnRows(sqlmock.NewRows(requestCols))

	req, err := repo.GetByID(context.Background(), 1)
	if err != nil || req != nil {
		t.Fatalf("GetByID = %+v, %v; want nil, nil", req, err)
	}
}

func TestPostgresRepository_List(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM password_reset_requests ORDER BY requested_at DESC").
		WillReturnRows(sqlmock.NewRows(requestCols).
			AddRow(int64(2), int64(4), "alice@x.com", "REQUESTED", nil, "", "", now, nil, nil, "").
			AddRow(int64(1), int64(5), "bob@x.com", "PASSWORD_SENT", nil, "h", "help@x.com", now, now, now, ""))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[1].Status != domain.StatusPasswordSent {
		t.Errorf("list = %+v", list)
	}
}

func TestPostgresRepository_UpdateIfStatus(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	req := &domain.Request{ID: 7, Status: domain.StatusAccepted, TempPasswordPlain: "Tmp1234567", TempPasswordHash: "hash",
		ApprovedBy: "help@x.com", ApprovedAt: &now}

	mock.ExpectExec("UPDATE password_reset_requests").
		WithArgs(int64(7), "ACCEPTED", sql.NullString{String: "Tmp1234567", Valid: true}, "hash", "help@x.com",
			sql.NullTime{Time: now, Valid: true}, sql.NullTime{}, "", "REQUESTED").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateIfStatus(context.Background(), req, domain.StatusRequested); err != nil {
		t.Fatalf("UpdateIfStatus: %v", err)
	}
}

func TestPostgresRepository_UpdateIfStatus_Mismatch(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("UPDATE password_reset_requests").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateIfStatus(context.Background(), &domain.Request{ID: 7, Status: domain.StatusAccepted}, domain.StatusRequested)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Errorf("err = %v, want ErrStatusMismatch", err)
	}
}

func TestPostgresRepository_CompleteIfStatus(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	req := &domain.Request{ID: 7, IdentityID: 4, Status: domain.StatusPasswordSent, TempPasswordHash: "hash", PasswordSentAt: &now}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE password_reset_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE identities SET password_hash = \\$2").WithArgs(int64(4), "hash").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CompleteIfStatus(context.Background(), req, domain.StatusAccepted); err != nil {
		t.Fatalf("CompleteIfStatus: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CompleteIfStatus_MismatchRollsBack(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE password_reset_requests").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CompleteIfStatus(context.Background(), &domain.Request{ID: 7, IdentityID: 4}, domain.StatusAccepted)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Errorf("err = %v, want ErrStatusMismatch", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
