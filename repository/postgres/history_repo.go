package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

// sendHistoryUniqueConstraint is the partial unique index over successful
// entries on (article_id, group_id, day_bucket). It is the binding form of
// the same-day rule; everything upstream is a precheck.
const sendHistoryUniqueConstraint = "send_history_pair_day_key"

type sendHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewSendHistoryRepository returns a Postgres-backed implementation of SendHistoryRepository.
func NewSendHistoryRepository(pool *pgxpool.Pool) repository.SendHistoryRepository {
	return &sendHistoryRepository{pool: pool}
}

func (r *sendHistoryRepository) ListForGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]domain.SendHistoryEntry, error) {
	const query = `
	SELECT id, drop_id, article_id, group_id, sent_at, outcome, error
	FROM send_history
	WHERE group_id = $1
	  AND outcome = $2
	  AND sent_at >= $3
	  AND sent_at <= $4
	ORDER BY sent_at ASC
	`
	rows, err := r.pool.Query(ctx, query, groupID, string(domain.SendOutcomeSuccess), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.SendHistoryEntry
	for rows.Next() {
		var (
			entry   domain.SendHistoryEntry
			outcome string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.DropID,
			&entry.ArticleID,
			&entry.GroupID,
			&entry.SentAt,
			&outcome,
			&entry.Error,
		); err != nil {
			return nil, err
		}
		entry.Outcome = domain.SendOutcome(outcome)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *sendHistoryRepository) Record(ctx context.Context, entry *domain.SendHistoryEntry, dayBucket string) error {
	if entry == nil {
		return domain.ErrInvalidPayload
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO send_history (id, drop_id, article_id, group_id, sent_at, outcome, error, day_bucket)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.DropID,
		entry.ArticleID,
		entry.GroupID,
		entry.SentAt,
		string(entry.Outcome),
		entry.Error,
		dayBucket,
	)
	if err != nil {
		if isUniqueViolation(err, sendHistoryUniqueConstraint) {
			return domain.ErrPairAlreadySent
		}
		return err
	}
	return nil
}
