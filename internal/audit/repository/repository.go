package repository

import (
	"context"
	"time"

	"registration-backend/internal/audit/domain"
)

// Filter narrows a List query. Zero fields match everything; From and To are inclusive.
type Filter struct {
	ActionType domain.ActionType
	Outcome    domain.Outcome
	From       *time.Time
	To         *time.Time
}

// Repository defines persistence for action audit entries. Entries are append-only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.ActionEntry, error)
	// List returns entries matching f, newest first.
	List(ctx context.Context, f Filter) ([]*domain.ActionEntry, error)
	Create(ctx context.Context, e *domain.ActionEntry) error
}
