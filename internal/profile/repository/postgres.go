package repository

import (
	"context"
	"database/sql"
	"errors"

	"registration-backend/internal/db"
	identityrepo "registration-backend/internal/identity/repository"
	"registration-backend/internal/profile/domain"
)

const profileColumns = `id, identity_id, name, phone, address, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository backed by conn.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the profile for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Profile, error) {
	return scanOne(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

// GetByIdentityID returns the profile owned by identityID, or nil if not found.
func (r *PostgresRepository) GetByIdentityID(ctx context.Context, identityID int64) (*domain.Profile, error) {
	return scanOne(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE identity_id = $1`, identityID))
}

func (r *PostgresRepository) Create(ctx context.Context, p *domain.Profile) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO profiles (identity_id, name, phone, address, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			p.IdentityID, p.Name, p.Phone, p.Address, p.CreatedAt,
		).Scan(&p.ID)
		if err != nil {
			return err
		}
		return identityrepo.NewPostgresRepository(tx).SetProfileCreated(ctx, p.IdentityID, true)
	})
}

func (r *PostgresRepository) DeleteWithIdentity(ctx context.Context, profileID, identityID int64) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1 AND identity_id = $2`, profileID, identityID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return sql.ErrNoRows
		}
		identities := identityrepo.NewPostgresRepository(tx)
		if err := identities.SetActive(ctx, identityID, false); err != nil {
			return err
		}
		return identities.SetProfileCreated(ctx, identityID, false)
	})
}

func scanOne(row *sql.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(&p.ID, &p.IdentityID, &p.Name, &p.Phone, &p.Address, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
