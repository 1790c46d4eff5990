package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"registration-backend/internal/audit/domain"
)

var cols = []string{"id", "actor_email", "actor_role", "target_user_id", "target_email", "action_type", "outcome", "reason", "before_state", "after_state", "performed_at"}

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	target := int64(7)
	mock.ExpectExec("INSERT INTO action_audit").
		WithArgs("a-1", "admin@x.com", "ADMIN", sql.NullInt64{Int64: 7, Valid: true}, "alice@x.com",
			"ROLE_CHANGE", "SUCCESS", "", `{"role":"USER"}`, `{"role":"SUPPORT"}`, at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewPostgresRepository(db).Create(context.Background(), &domain.ActionEntry{
		ID: "a-1", ActorEmail: "admin@x.com", ActorRole: "ADMIN", TargetUserID: &target, TargetEmail: "alice@x.com",
		ActionType: domain.ActionRoleChange, Outcome: domain.OutcomeSuccess,
		BeforeState: `{"role":"USER"}`, AfterState: `{"role":"SUPPORT"}`, PerformedAt: at,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_List_BuildsFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery(`FROM action_audit WHERE action_type = \$1 AND outcome = \$2 AND performed_at >= \$3 AND performed_at <= \$4 ORDER BY performed_at DESC`).
		WithArgs("USER_DELETE", "FAILED", from, to).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("a-2", "admin@x.com", "ADMIN", nil, "", "USER_DELETE", "FAILED", "user not found", "", "", from.Add(time.Hour)))

	list, err := NewPostgresRepository(db).List(context.Background(), Filter{
		ActionType: domain.ActionUserDelete, Outcome: domain.OutcomeFailed, From: &from, To: &to,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}
	if list[0].TargetUserID != nil {
		t.Errorf("TargetUserID = %v, want nil", *list[0].TargetUserID)
	}
	if list[0].Reason != "user not found" {
		t.Errorf("Reason = %q", list[0].Reason)
	}
}

func TestPostgresRepository_List_NoFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery(`SELECT (.+) FROM action_audit ORDER BY performed_at DESC`).
		WillReturnRows(sqlmock.NewRows(cols))

	list, err := NewPostgresRepository(db).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len = %d, want 0", len(list))
	}
}

func TestPostgresRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectQuery(`FROM action_audit WHERE id = \$1`).WithArgs("nope").WillReturnRows(sqlmock.NewRows(cols))

	e, err := NewPostgresRepository(db).GetByID(context.Background(), "nope")
	if err != nil || e != nil {
		t.Fatalf("GetByID = %v, %v; want nil, nil", e, err)
	}
}
