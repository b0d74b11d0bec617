package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

type dropRepository struct {
	pool *pgxpool.Pool
}

// NewDropRepository returns a Postgres-backed implementation of DropRepository.
func NewDropRepository(pool *pgxpool.Pool) repository.DropRepository {
	return &dropRepository{pool: pool}
}

func (r *dropRepository) GetByID(ctx context.Context, id string) (*domain.Drop, error) {
	const query = `
	SELECT id, name, article_ids, group_ids, message_template, scheduled_for,
	       status, total_articles_sent, total_groups_sent, created_at, updated_at
	FROM drops
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanDrop(row)
}

func (r *dropRepository) List(ctx context.Context, filter repository.DropFilter) ([]domain.Drop, error) {
	const query = `
	SELECT id, name, article_ids, group_ids, message_template, scheduled_for,
	       status, total_articles_sent, total_groups_sent, created_at, updated_at
	FROM drops
	WHERE ($1 = '' OR status = $1)
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.Status, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDrops(rows)
}

func (r *dropRepository) ListDue(ctx context.Context, before time.Time) ([]domain.Drop, error) {
	const query = `
	SELECT id, name, article_ids, group_ids, message_template, scheduled_for,
	       status, total_articles_sent, total_groups_sent, created_at, updated_at
	FROM drops
	WHERE status = $1 AND scheduled_for <= $2
	ORDER BY scheduled_for ASC
	`
	rows, err := r.pool.Query(ctx, query, string(domain.DropStatusScheduled), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDrops(rows)
}

func (r *dropRepository) Create(ctx context.Context, drop *domain.Drop) (*domain.Drop, error) {
	if drop == nil {
		return nil, domain.ErrInvalidPayload
	}
	if drop.ID == "" {
		drop.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO drops (id, name, article_ids, group_ids, message_template, scheduled_for, status, total_articles_sent, total_groups_sent)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		drop.ID,
		drop.Name,
		drop.ArticleIDs,
		drop.GroupIDs,
		drop.MessageTemplate,
		drop.ScheduledFor,
		string(drop.Status),
		drop.TotalArticlesSent,
		drop.TotalGroupsSent,
	).Scan(&drop.CreatedAt, &drop.UpdatedAt); err != nil {
		return nil, err
	}
	return drop, nil
}

func (r *dropRepository) Update(ctx context.Context, drop *domain.Drop) error {
	if drop == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE drops
	SET name = $2,
		article_ids = $3,
		group_ids = $4,
		message_template = $5,
		scheduled_for = $6,
		status = $7,
		total_articles_sent = $8,
		total_groups_sent = $9,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		drop.ID,
		drop.Name,
		drop.ArticleIDs,
		drop.GroupIDs,
		drop.MessageTemplate,
		drop.ScheduledFor,
		string(drop.Status),
		drop.TotalArticlesSent,
		drop.TotalGroupsSent,
	).Scan(&drop.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrDropNotFound
		}
		return err
	}
	return nil
}

func (r *dropRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM drops WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDropNotFound
	}
	return nil
}

func scanDrop(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Drop, error) {
	var drop domain.Drop
	var (
		scheduledFor *time.Time
		status       string
	)
	if err := row.Scan(
		&drop.ID,
		&drop.Name,
		&drop.ArticleIDs,
		&drop.GroupIDs,
		&drop.MessageTemplate,
		&scheduledFor,
		&status,
		&drop.TotalArticlesSent,
		&drop.TotalGroupsSent,
		&drop.CreatedAt,
		&drop.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDropNotFound
		}
		return nil, err
	}
	drop.ScheduledFor = scheduledFor
	drop.Status = domain.DropStatus(status)
	return &drop, nil
}

func collectDrops(rows pgx.Rows) ([]domain.Drop, error) {
	var drops []domain.Drop
	for rows.Next() {
		drop, err := scanDrop(rows)
		if err != nil {
			return nil, err
		}
		drops = append(drops, *drop)
	}
	return drops, rows.Err()
}
