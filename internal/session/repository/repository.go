package repository

import (
	"context"

	"registration-backend/internal/session/domain"
)

// Repository persists session audit entries. Entries are append-only; there is no update or delete.
type Repository interface {
	Append(ctx context.Context, e *domain.Entry) error
	// ListByEmailAndKind returns entries for email with the given kind, oldest first.
	ListByEmailAndKind(ctx context.Context, email string, kind domain.Kind) ([]*domain.Entry, error)
	// LatestByEmailAndKind returns the newest entry for email with the given kind, or nil if there is none.
	LatestByEmailAndKind(ctx context.Context, email string, kind domain.Kind) (*domain.Entry, error)
	// ListByEmail returns every entry for email, oldest first.
	ListByEmail(ctx context.Context, email string) ([]*domain.Entry, error)
	// ListAll returns every entry, oldest first.
	ListAll(ctx context.Context) ([]*domain.Entry, error)
}
