package repository

import (
	"context"
	"time"

	"github.com/dropwave/backend/domain"
)

type DropFilter struct {
	Status string
	Limit  int
	Offset int
}

type DropRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Drop, error)
	List(ctx context.Context, filter DropFilter) ([]domain.Drop, error)
	// ListDue returns SCHEDULED drops whose scheduled time is at or before the given instant.
	ListDue(ctx context.Context, before time.Time) ([]domain.Drop, error)
	Create(ctx context.Context, drop *domain.Drop) (*domain.Drop, error)
	Update(ctx context.Context, drop *domain.Drop) error
	// Delete removes a drop. Callers enforce the DRAFT-only deletion policy.
	Delete(ctx context.Context, id string) error
}
