package drop

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/pkg/clock"
)

// MessageSender is the opaque outbound capability. The executor does not care
// how a message reaches a group, only whether the attempt succeeded.
type MessageSender interface {
	SendMessage(ctx context.Context, groupID, payload string) error
}

// OutcomeRecorder persists one history entry per attempt. Implementations
// must surface domain.ErrPairAlreadySent when the same-day constraint
// rejects the write, so a lost race is reported as a pair failure.
type OutcomeRecorder interface {
	Record(ctx context.Context, entry *domain.SendHistoryEntry, dayBucket string) error
}

// PairOutcome is the result of one (article, group) send attempt.
type PairOutcome struct {
	GroupID   string             `json:"group_id"`
	ArticleID string             `json:"article_id"`
	Outcome   domain.SendOutcome `json:"outcome"`
	Error     string             `json:"error,omitempty"`
}

// ExecutorConfig bounds dispatch work.
type ExecutorConfig struct {
	// GroupConcurrency caps how many groups are dispatched at once.
	GroupConcurrency int
	// PairTimeout bounds a single send attempt; a timed-out attempt is
	// recorded as FAILURE, never left unresolved.
	PairTimeout time.Duration
	// Location is the reference timezone for day bucketing.
	Location *time.Location
}

func (c *ExecutorConfig) normalize() {
	if c.GroupConcurrency <= 0 {
		c.GroupConcurrency = 4
	}
	if c.PairTimeout <= 0 {
		c.PairTimeout = 10 * time.Second
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
}

// Executor drives one drop through its SENDING phase. Articles within a group
// go out sequentially to respect downstream rate limits; groups run
// concurrently under the configured cap. A failed pair never aborts the rest.
type Executor struct {
	sender   MessageSender
	recorder OutcomeRecorder
	clock    clock.Clock
	idgen    clock.IDGenerator
	logger   *zap.Logger
	cfg      ExecutorConfig
}

func NewExecutor(sender MessageSender, recorder OutcomeRecorder, clk clock.Clock, idgen clock.IDGenerator, logger *zap.Logger, cfg ExecutorConfig) *Executor {
	cfg.normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	if idgen == nil {
		idgen = clock.UUID()
	}
	return &Executor{
		sender:   sender,
		recorder: recorder,
		clock:    clk,
		idgen:    idgen,
		logger:   logger,
		cfg:      cfg,
	}
}

// Execute attempts every allowed pair and returns the full outcome list.
// Each outcome is recorded immediately after its attempt, so a crash
// mid-dispatch leaves an accurate partial history.
func (e *Executor) Execute(ctx context.Context, d *domain.Drop, perGroup []domain.GroupValidation) []PairOutcome {
	var (
		mu       sync.Mutex
		outcomes []PairOutcome
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, e.cfg.GroupConcurrency)

	for _, validation := range perGroup {
		if validation.Exhausted() {
			continue
		}
		wg.Add(1)
		go func(v domain.GroupValidation) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			groupOutcomes := e.dispatchGroup(ctx, d, v)
			mu.Lock()
			outcomes = append(outcomes, groupOutcomes...)
			mu.Unlock()
		}(validation)
	}
	wg.Wait()
	return outcomes
}

func (e *Executor) dispatchGroup(ctx context.Context, d *domain.Drop, v domain.GroupValidation) []PairOutcome {
	outcomes := make([]PairOutcome, 0, len(v.AllowedArticleIDs))
	for _, articleID := range v.AllowedArticleIDs {
		outcomes = append(outcomes, e.dispatchPair(ctx, d, v.GroupID, articleID))
	}
	return outcomes
}

func (e *Executor) dispatchPair(ctx context.Context, d *domain.Drop, groupID, articleID string) PairOutcome {
	sendCtx, cancel := context.WithTimeout(ctx, e.cfg.PairTimeout)
	sendErr := e.sender.SendMessage(sendCtx, groupID, buildPayload(d, articleID))
	cancel()

	now := e.clock.Now()
	entry := &domain.SendHistoryEntry{
		ID:        e.idgen.NewID(),
		DropID:    d.ID,
		ArticleID: articleID,
		GroupID:   groupID,
		SentAt:    now,
		Outcome:   domain.SendOutcomeSuccess,
	}
	outcome := PairOutcome{GroupID: groupID, ArticleID: articleID, Outcome: domain.SendOutcomeSuccess}
	if sendErr != nil {
		entry.Outcome = domain.SendOutcomeFailure
		entry.Error = sendErr.Error()
		outcome.Outcome = domain.SendOutcomeFailure
		outcome.Error = sendErr.Error()
		e.logger.Warn("pair send failed",
			zap.String("drop_id", d.ID),
			zap.String("group_id", groupID),
			zap.String("article_id", articleID),
			zap.Error(sendErr))
	}

	// Recording uses the parent context: a send timeout must not prevent
	// the FAILURE outcome from being written.
	if err := e.recorder.Record(ctx, entry, domain.DayBucket(now, e.cfg.Location)); err != nil {
		if errors.Is(err, domain.ErrPairAlreadySent) {
			// A concurrent dispatch committed this pair first. The storage
			// constraint is the source of truth, so this attempt failed.
			outcome.Outcome = domain.SendOutcomeFailure
			outcome.Error = err.Error()
			e.logger.Warn("pair lost same-day race",
				zap.String("drop_id", d.ID),
				zap.String("group_id", groupID),
				zap.String("article_id", articleID))
			return outcome
		}
		e.logger.Error("failed to record send outcome",
			zap.String("drop_id", d.ID),
			zap.String("group_id", groupID),
			zap.String("article_id", articleID),
			zap.Error(err))
	}
	return outcome
}

func buildPayload(d *domain.Drop, articleID string) string {
	if d.MessageTemplate != "" {
		return d.MessageTemplate + "\n" + articleID
	}
	return d.Name + "\n" + articleID
}
