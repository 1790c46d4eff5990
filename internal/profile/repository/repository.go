package repository

import (
	"context"

	"registration-backend/internal/profile/domain"
)

// Repository defines persistence for profiles. Writes that also touch the owning identity run in
// one transaction.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Profile, error)
	GetByIdentityID(ctx context.Context, identityID int64) (*domain.Profile, error)
	// Create inserts p, sets its ID and marks the identity's profile as created.
	Create(ctx context.Context, p *domain.Profile) error
	// DeleteWithIdentity removes the profile, deactivates the identity and clears its profile flag.
	DeleteWithIdentity(ctx context.Context, profileID, identityID int64) error
}
