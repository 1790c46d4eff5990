package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"registration-backend/internal/audit/domain"
	"registration-backend/internal/db"
)

const entryColumns = `id, actor_email, actor_role, target_user_id, target_email, action_type, outcome, reason, before_state, after_state, performed_at`

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an action audit repository that uses the given db for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the entry for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.ActionEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM action_audit WHERE id = $1`, id)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// List returns entries matching f, newest first. Returns (nil, error) only on database errors.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]*domain.ActionEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ActionType != "" {
		add("action_type = $%d", string(f.ActionType))
	}
	if f.Outcome != "" {
		add("outcome = $%d", string(f.Outcome))
	}
	if f.From != nil {
		add("performed_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("performed_at <= $%d", *f.To)
	}
	query := `SELECT ` + entryColumns + ` FROM action_audit`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY performed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.ActionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Create persists the entry to the database. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.ActionEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_audit (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.ActorEmail, e.ActorRole, int64PtrToNull(e.TargetUserID), e.TargetEmail,
		string(e.ActionType), string(e.Outcome), e.Reason, e.BeforeState, e.AfterState, e.PerformedAt,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.ActionEntry, error) {
	var (
		e               domain.ActionEntry
		target          sql.NullInt64
		action, outcome string
	)
	if err := s.Scan(&e.ID, &e.ActorEmail, &e.ActorRole, &target, &e.TargetEmail, &action, &outcome,
		&e.Reason, &e.BeforeState, &e.AfterState, &e.PerformedAt); err != nil {
		return nil, err
	}
	if target.Valid {
		id := target.Int64
		e.TargetUserID = &id
	}
	e.ActionType = domain.ActionType(action)
	e.Outcome = domain.Outcome(outcome)
	return &e, nil
}

func int64PtrToNull(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
