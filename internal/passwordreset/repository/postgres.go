package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"registration-backend/internal/db"
	identityrepo "registration-backend/internal/identity/repository"
	"registration-backend/internal/passwordreset/domain"
)

const requestColumns = `id, identity_id, email, status, temp_password_plain, temp_password_hash, approved_by,
	requested_at, approved_at, password_sent_at, remarks`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a password reset repository backed by conn.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create inserts r and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, req *domain.Request) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO password_reset_requests (identity_id, email, status, requested_at, remarks)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		req.IdentityID, req.Email, string(req.Status), req.RequestedAt, req.Remarks,
	).Scan(&req.ID)
}

// GetByID returns the request for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM password_reset_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

// List returns all requests, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Request, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM password_reset_requests ORDER BY requested_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) UpdateIfStatus(ctx context.Context, req *domain.Request, expected domain.Status) error {
	return updateIfStatus(ctx, r.db, req, expected)
}

func (r *PostgresRepository) CompleteIfStatus(ctx context.Context, req *domain.Request, expected domain.Status) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateIfStatus(ctx, tx, req, expected); err != nil {
			return err
		}
		return identityrepo.NewPostgresRepository(tx).UpdatePasswordHash(ctx, req.IdentityID, req.TempPasswordHash)
	})
}

func updateIfStatus(ctx context.Context, q db.DBTX, req *domain.Request, expected domain.Status) error {
	res, err := q.ExecContext(ctx,
		`UPDATE password_reset_requests
		 SET status = $2, temp_password_plain = $3, temp_password_hash = $4, approved_by = $5,
		     approved_at = $6, password_sent_at = $7, remarks = $8
		 WHERE id = $1 AND status = $9`,
		req.ID, string(req.Status), stringToNull(req.TempPasswordPlain), req.TempPasswordHash, req.ApprovedBy,
		timeToNullTime(req.ApprovedAt), timeToNullTime(req.PasswordSentAt), req.Remarks, string(expected),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusMismatch
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (*domain.Request, error) {
	var (
		req                domain.Request
		status             string
		plain              sql.NullString
		approvedAt, sentAt sql.NullTime
	)
	err := s.Scan(&req.ID, &req.IdentityID, &req.Email, &status, &plain, &req.TempPasswordHash, &req.ApprovedBy,
		&req.RequestedAt, &approvedAt, &sentAt, &req.Remarks)
	if err != nil {
		return nil, err
	}
	req.Status = domain.Status(status)
	req.TempPasswordPlain = plain.String
	req.ApprovedAt = nullTimeToPtr(approvedAt)
	req.PasswordSentAt = nullTimeToPtr(sentAt)
	return &req, nil
}

func stringToNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
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
