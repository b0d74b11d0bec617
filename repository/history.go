package repository

import (
	"context"
	"time"

	"github.com/dropwave/backend/domain"
)

// SendHistoryRepository is the append-only log backing the same-day rule.
// Entries are never updated or deleted.
type SendHistoryRepository interface {
	// ListForGroupBetween returns successful entries for the group whose
	// sent_at lies within [from, to], both endpoints inclusive.
	ListForGroupBetween(ctx context.Context, groupID string, from, to time.Time) ([]domain.SendHistoryEntry, error)
	// Record appends one entry. Successful entries are constrained to be
	// unique per (article, group, day bucket); a violated constraint is
	// reported as domain.ErrPairAlreadySent so a concurrent dispatch that
	// lost the race can mark the pair as failed.
	Record(ctx context.Context, entry *domain.SendHistoryEntry, dayBucket string) error
}
