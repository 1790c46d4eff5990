package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"registration-backend/internal/identity/domain"
)

var identityCols = []string{"id", "email", "password_hash", "role", "profile_created", "active", "created_at", "updated_at"}

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgresRepository_GetByEmail(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM identities WHERE email = \\$1").
		WithArgs("alice@x.com").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow(int64(3), "alice@x.com", "hash", "USER", false, true, now, now))

	i, err := repo.GetByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if i == nil {
		t.Fatal("identity is nil")
	}
	if i.ID != 3 || i.Role != domain.RoleUser || !i.Active || i.ProfileCreated {
		t.Errorf("identity = %+v", i)
	}
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM identities WHERE id = \\$1").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(identityCols))

	i, err := repo.GetByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if i != nil {
		t.Errorf("identity = %+v, want nil", i)
	}
}

func TestPostgresRepository_GetByID_DatabaseError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM identities").WillReturnError(errors.New("connection refused"))

	if _, err := repo.GetByID(context.Background(), 1); err == nil {
		t.Fatal("GetByID should surface database errors")
	}
}

func TestPostgresRepository_List(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM identities ORDER BY id ASC").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow(int64(1), "root@x.com", "h", "SUPER_ADMIN", true, true, now, now).
			AddRow(int64(2), "bob@x.com", "h", "SUPPORT", false, false, now, now))

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[1].Role != domain.RoleSupport || list[1].Active {
		t.Errorf("second identity = %+v", list[1])
	}
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO identities").
		WithArgs("alice@x.com", "hash", "USER", false, true, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	i := &domain.Identity{Email: "alice@x.com", PasswordHash: "hash", Role: domain.RoleUser, Active: true, CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(context.Background(), i); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if i.ID != 12 {
		t.Errorf("ID = %d, want 12", i.ID)
	}
}

func TestPostgresRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO identities").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &domain.Identity{Email: "alice@x.com", PasswordHash: "h", Role: domain.RoleUser})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestPostgresRepository_Updates(t *testing.T) {
	ctx := context.Background()
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE identities SET password_hash = \\$2").WithArgs(int64(1), "new").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE identities SET role = \\$2").WithArgs(int64(1), "ADMIN").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE identities SET active = \\$2").WithArgs(int64(1), false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE identities SET profile_created = \\$2").WithArgs(int64(1), true).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(ctx, 1, "new"); err != nil {
		t.Fatalf("UpdatePasswordHash: %v", err)
	}
	if err := repo.UpdateRole(ctx, 1, domain.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	if err := repo.SetActive(ctx, 1, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := repo.SetProfileCreated(ctx, 1, true); err != nil {
		t.Fatalf("SetProfileCreated: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_Update_NoRows(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("UPDATE identities SET role").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRole(context.Background(), 404, domain.RoleUser)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
