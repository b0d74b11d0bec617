package repository

import (
	"context"

	"github.com/dropwave/backend/domain"
)

// ArticleRepository is the read-only catalog lookup consumed by the dispatch core.
type ArticleRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Article, error)
}

// GroupRepository is the read-only group directory lookup.
type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error)
}
