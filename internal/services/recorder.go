package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/internal/infrastructure/journal"
	"github.com/dropwave/backend/repository"
	dropUC "github.com/dropwave/backend/usecase/drop"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// FallbackRecorder writes send outcomes to the history store and falls back
// to the local journal when the store is unreachable. Same-day constraint
// violations are never journaled: they are real conflicts the dispatcher
// must see immediately.
type FallbackRecorder struct {
	history repository.SendHistoryRepository
	journal *journal.Store
	monitor ConnectionHealth
	logger  *zap.Logger
}

func NewFallbackRecorder(history repository.SendHistoryRepository, jrn *journal.Store, monitor ConnectionHealth, logger *zap.Logger) *FallbackRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackRecorder{
		history: history,
		journal: jrn,
		monitor: monitor,
		logger:  logger,
	}
}

func (r *FallbackRecorder) Record(ctx context.Context, entry *domain.SendHistoryEntry, dayBucket string) error {
	if r.monitor == nil || r.monitor.IsOnline() {
		err := r.history.Record(ctx, entry, dayBucket)
		if err == nil || errors.Is(err, domain.ErrPairAlreadySent) {
			return err
		}
		r.logger.Warn("history write failed, journaling outcome",
			zap.String("drop_id", entry.DropID),
			zap.String("article_id", entry.ArticleID),
			zap.String("group_id", entry.GroupID),
			zap.Error(err))
	}

	if r.journal == nil {
		return domain.NewError(domain.ErrCodeInternal, "history store unavailable and no journal configured")
	}
	return r.journal.Enqueue(journal.FromHistory(entry, dayBucket))
}

var _ dropUC.OutcomeRecorder = (*FallbackRecorder)(nil)
