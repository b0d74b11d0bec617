package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DueDispatcher abstracts the drop use case's scheduled-send sweep.
type DueDispatcher interface {
	DispatchDue(ctx context.Context) error
}

// DropScheduler periodically dispatches SCHEDULED drops whose time has come.
// It shares the manual send pipeline, so the same guard and state machine
// rules apply to scheduled sends.
type DropScheduler struct {
	dispatcher DueDispatcher
	logger     *zap.Logger
	cron       *cron.Cron
	interval   time.Duration
}

func NewDropScheduler(dispatcher DueDispatcher, interval time.Duration, logger *zap.Logger) *DropScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &DropScheduler{
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		cron:       cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if err := s.dispatcher.DispatchDue(ctx); err != nil {
			s.logger.Error("due drop sweep failed", zap.Error(err))
		}
	})

	return s
}

func (s *DropScheduler) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("drop scheduler started")
}

func (s *DropScheduler) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("drop scheduler stopped")
}
