package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"registration-backend/internal/db"
	"registration-backend/internal/identity/domain"
)

const identityColumns = `id, email, password_hash, role, profile_created, active, created_at, updated_at`

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an identity repository that uses conn for persistence.
// conn may be a *sql.DB or a *sql.Tx.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the identity for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	return scanOne(row)
}

// GetByEmail returns the identity for email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
	return scanOne(row)
}

// List returns all identities ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Identity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Identity
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Create inserts i and sets its ID from the generated key. Returns ErrDuplicateEmail when the
// email is taken.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO identities (email, password_hash, role, profile_created, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		i.Email, i.PasswordHash, string(i.Role), i.ProfileCreated, i.Active, i.CreatedAt, i.UpdatedAt,
	).Scan(&i.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// UpdatePasswordHash replaces the stored password hash for id.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return r.exec(ctx, `UPDATE identities SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	return r.exec(ctx, `UPDATE identities SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
}

func (r *PostgresRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, `UPDATE identities SET active = $2, updated_at = now() WHERE id = $1`, id, active)
}

func (r *PostgresRepository) SetProfileCreated(ctx context.Context, id int64, created bool) error {
	return r.exec(ctx, `UPDATE identities SET profile_created = $2, updated_at = now() WHERE id = $1`, id, created)
}

// exec runs a single-row update and reports sql.ErrNoRows when nothing matched.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*domain.Identity, error) {
	i, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

func scanIdentity(s scanner) (*domain.Identity, error) {
	var (
		i    domain.Identity
		role string
	)
	if err := s.Scan(&i.ID, &i.Email, &i.PasswordHash, &role, &i.ProfileCreated, &i.Active, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	i.Role = domain.Role(role)
	return &i, nil
}
