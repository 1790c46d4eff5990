package repository

import (
	"context"
	"errors"

	"registration-backend/internal/passwordreset/domain"
)

// ErrStatusMismatch is returned by conditional updates when the stored status no longer matches
// the expected one, i.e. another writer moved the request first.
var ErrStatusMismatch = errors.New("password reset request status changed")

// Repository defines persistence for password reset requests.
type Repository interface {
	Create(ctx context.Context, r *domain.Request) error
	GetByID(ctx context.Context, id int64) (*domain.Request, error)
	List(ctx context.Context) ([]*domain.Request, error)
	// UpdateIfStatus writes r's mutable fields only if the stored status equals expected.
	UpdateIfStatus(ctx context.Context, r *domain.Request, expected domain.Status) error
	// CompleteIfStatus does UpdateIfStatus and sets the identity's password hash to
	// r.TempPasswordHash in the same transaction.
	CompleteIfStatus(ctx context.Context, r *domain.Request, expected domain.Status) error
}
