package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/internal/infrastructure/journal"
	"github.com/dropwave/backend/repository"
)

// DrainerConfig controls how frequently the journal is replayed.
type DrainerConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// JournalDrainer replays locally journaled send outcomes into the history
// store once it is reachable again. Replays hitting the same-day constraint
// are dropped: the entry was already committed by someone else.
type JournalDrainer struct {
	store   *journal.Store
	monitor ConnectionHealth
	history repository.SendHistoryRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     DrainerConfig
}

func NewJournalDrainer(
	store *journal.Store,
	monitor ConnectionHealth,
	history repository.SendHistoryRepository,
	logger *zap.Logger,
	cfg DrainerConfig,
) *JournalDrainer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &JournalDrainer{
		store:   store,
		monitor: monitor,
		history: history,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("journal drain failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *JournalDrainer) Start() {
	if d == nil || d.cron == nil {
		return
	}
	d.cron.Start()
	d.logger.Info("journal drainer started")
}

// Stop gracefully stops the scheduler.
func (d *JournalDrainer) Stop(ctx context.Context) {
	if d == nil || d.cron == nil {
		return
	}
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("journal drainer stopped")
}

// Drain replays journaled entries synchronously.
func (d *JournalDrainer) Drain(ctx context.Context) error {
	if d == nil || d.store == nil {
		return nil
	}
	if d.monitor != nil && !d.monitor.IsOnline() {
		d.logger.Debug("skipping journal drain (history store offline)")
		return nil
	}

	entries, err := d.store.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		err := d.history.Record(ctx, entry.ToHistory(), entry.DayBucket)
		if err != nil && !errors.Is(err, domain.ErrPairAlreadySent) {
			d.logger.Error("failed to replay journal entry",
				zap.String("entry_id", entry.ID),
				zap.String("drop_id", entry.DropID),
				zap.Error(err))

			entry.Retries++
			if entry.Retries >= d.cfg.MaxRetries {
				d.logger.Warn("dropping journal entry (max retries reached)", zap.String("entry_id", entry.ID))
				_ = d.store.Remove(entry)
				continue
			}

			if err := d.store.Remove(entry); err != nil {
				d.logger.Warn("failed to remove journal entry", zap.Error(err))
			}
			if err := d.store.Requeue(entry); err != nil {
				d.logger.Error("failed to requeue journal entry", zap.Error(err))
			}
			continue
		}

		if err := d.store.Remove(entry); err != nil {
			d.logger.Warn("failed to purge replayed journal entry", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of journaled entries.
func (d *JournalDrainer) Size() int {
	if d == nil || d.store == nil {
		return 0
	}
	size, err := d.store.Size()
	if err != nil {
		return 0
	}
	return size
}
