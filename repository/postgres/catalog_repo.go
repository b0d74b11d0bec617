package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository returns the Postgres-backed catalog lookup.
func NewArticleRepository(pool *pgxpool.Pool) repository.ArticleRepository {
	return &articleRepository{pool: pool}
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	const query = `
	SELECT id, name, stock, status, created_at, updated_at
	FROM articles
	WHERE id = $1
	`
	var (
		article domain.Article
		status  string
	)
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.Name,
		&article.Stock,
		&status,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, err
	}
	article.Status = domain.ArticleStatus(status)
	return &article, nil
}

func (r *articleRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
	SELECT id, name, stock, status, created_at, updated_at
	FROM articles
	WHERE id = ANY($1)
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			article domain.Article
			status  string
		)
		if err := rows.Scan(
			&article.ID,
			&article.Name,
			&article.Stock,
			&status,
			&article.CreatedAt,
			&article.UpdatedAt,
		); err != nil {
			return nil, err
		}
		article.Status = domain.ArticleStatus(status)
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

type groupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository returns the Postgres-backed group directory lookup.
func NewGroupRepository(pool *pgxpool.Pool) repository.GroupRepository {
	return &groupRepository{pool: pool}
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	const query = `SELECT id, name, created_at FROM groups WHERE id = $1`
	var group domain.Group
	if err := r.pool.QueryRow(ctx, query, id).Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, created_at FROM groups WHERE id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		var group domain.Group
		if err := rows.Scan(&group.ID, &group.Name, &group.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}
