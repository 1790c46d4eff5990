package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"registration-backend/internal/db"
	"registration-backend/internal/session/domain"
)

const entryColumns = `id, email, role, event_time, kind, reason, token_hash, token_issued_at, token_expires_at`

// PostgresRepository stores session audit entries in the session_audit table.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a session audit repository backed by conn.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Append inserts e. The entry must have ID set.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_audit (`+entryColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.Email, e.Role, e.EventTime, string(e.Kind), string(e.Reason), e.TokenHash,
		timeToNullTime(e.TokenIssuedAt), timeToNullTime(e.TokenExpiresAt),
	)
	return err
}

func (r *PostgresRepository) ListByEmailAndKind(ctx context.Context, email string, kind domain.Kind) ([]*domain.Entry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM session_audit WHERE email = $1 AND kind = $2 ORDER BY event_time ASC`,
		email, string(kind))
}

// LatestByEmailAndKind returns nil, nil when no entry matches.
func (r *PostgresRepository) LatestByEmailAndKind(ctx context.Context, email string, kind domain.Kind) (*domain.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM session_audit WHERE email = $1 AND kind = $2 ORDER BY event_time DESC LIMIT 1`,
		email, string(kind))
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *PostgresRepository) ListByEmail(ctx context.Context, email string) ([]*domain.Entry, error) {
	return r.list(ctx,
		`SELECT `+entryColumns+` FROM session_audit WHERE email = $1 ORDER BY event_time ASC`, email)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM session_audit ORDER BY event_time ASC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.Entry, error) {
	var (
		e                 domain.Entry
		kind, reason      string
		issued, expiresAt sql.NullTime
	)
	if err := s.Scan(&e.ID, &e.Email, &e.Role, &e.EventTime, &kind, &reason, &e.TokenHash, &issued, &expiresAt); err != nil {
		return nil, err
	}
	e.Kind = domain.Kind(kind)
	e.Reason = domain.Reason(reason)
	e.TokenIssuedAt = nullTimeToPtr(issued)
	e.TokenExpiresAt = nullTimeToPtr(expiresAt)
	return &e, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
