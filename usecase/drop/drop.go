package drop

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/pkg/clock"
	"github.com/dropwave/backend/repository"
)

// UseCase owns the drop dispatch lifecycle: creation, what-if validation and
// the begin-send / execute / complete-send pipeline.
type UseCase struct {
	drops    repository.DropRepository
	articles repository.ArticleRepository
	groups   repository.GroupRepository
	guard    *Guard
	executor *Executor
	clock    clock.Clock
	idgen    clock.IDGenerator
	logger   *zap.Logger

	// dispatchTimeout bounds a whole send pipeline so a drop cannot hang in
	// SENDING indefinitely.
	dispatchTimeout time.Duration
}

func New(
	drops repository.DropRepository,
	articles repository.ArticleRepository,
	groups repository.GroupRepository,
	guard *Guard,
	executor *Executor,
	clk clock.Clock,
	idgen clock.IDGenerator,
	logger *zap.Logger,
	dispatchTimeout time.Duration,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	if idgen == nil {
		idgen = clock.UUID()
	}
	if dispatchTimeout <= 0 {
		dispatchTimeout = 5 * time.Minute
	}
	return &UseCase{
		drops:           drops,
		articles:        articles,
		groups:          groups,
		guard:           guard,
		executor:        executor,
		clock:           clk,
		idgen:           idgen,
		logger:          logger,
		dispatchTimeout: dispatchTimeout,
	}
}

type CreateDropInput struct {
	Name            string
	ArticleIDs      []string
	GroupIDs        []string
	MessageTemplate string
	ScheduledFor    *time.Time
}

// CreateDrop validates bounds and references and persists a new DRAFT
// (or SCHEDULED, when a future time is given) drop.
func (uc *UseCase) CreateDrop(ctx context.Context, input CreateDropInput) (*domain.Drop, error) {
	d, err := domain.NewDrop(uc.idgen.NewID(), input.Name, input.ArticleIDs, input.GroupIDs, input.MessageTemplate, input.ScheduledFor, uc.clock.Now())
	if err != nil {
		return nil, err
	}

	if violations, err := uc.checkReferences(ctx, d); err != nil {
		return nil, err
	} else if len(violations) > 0 {
		return nil, domain.NewErrorWithDetails(domain.ErrCodeInvalid, "drop validation failed", violations)
	}

	created, err := uc.drops.Create(ctx, d)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("drop created",
		zap.String("drop_id", created.ID),
		zap.String("status", string(created.Status)),
		zap.Int("articles", len(created.ArticleIDs)),
		zap.Int("groups", len(created.GroupIDs)))
	return created, nil
}

func (uc *UseCase) GetDrop(ctx context.Context, id string) (*domain.Drop, error) {
	return uc.drops.GetByID(ctx, id)
}

func (uc *UseCase) ListDrops(ctx context.Context, filter repository.DropFilter) ([]domain.Drop, error) {
	return uc.drops.List(ctx, filter)
}

// DeleteDrop removes a drop. Only drafts may be deleted; anything that has
// entered the dispatch lifecycle is kept for audit.
func (uc *UseCase) DeleteDrop(ctx context.Context, id string) error {
	d, err := uc.drops.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d.Status != domain.DropStatusDraft {
		return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("drop in status %s cannot be deleted", d.Status))
	}
	return uc.drops.Delete(ctx, id)
}

// ValidateDrop recomputes the full what-if validation against current
// history. Results are never cached: history may change between calls.
func (uc *UseCase) ValidateDrop(ctx context.Context, id string) (*domain.DropValidationResult, error) {
	d, err := uc.drops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.validate(ctx, d, uc.clock.Now())
}

func (uc *UseCase) validate(ctx context.Context, d *domain.Drop, referenceDate time.Time) (*domain.DropValidationResult, error) {
	result := &domain.DropValidationResult{PerGroup: []domain.GroupValidation{}}

	if d.Status != domain.DropStatusDraft && d.Status != domain.DropStatusScheduled && d.Status != domain.DropStatusFailed {
		result.Errors = append(result.Errors, fmt.Sprintf("drop in status %s cannot be sent", d.Status))
	}
	if len(d.GroupIDs) == 0 {
		result.Errors = append(result.Errors, "drop has no groups")
	}

	violations, err := uc.checkReferences(ctx, d)
	if err != nil {
		return nil, err
	}
	result.Errors = append(result.Errors, violations...)

	groups, err := uc.groups.GetByIDs(ctx, d.GroupIDs)
	if err != nil {
		return nil, err
	}

	perGroup, err := uc.guard.Evaluate(ctx, d.ArticleIDs, groups, referenceDate)
	if err != nil {
		return nil, err
	}
	result.PerGroup = perGroup
	for _, g := range perGroup {
		result.Warnings = append(result.Warnings, g.Warnings...)
	}

	result.CanSend = len(result.Errors) == 0 && domain.CanSendOverall(perGroup)
	return result, nil
}

// checkReferences resolves article and group references against the catalog
// and directory, returning one violation per problem found.
func (uc *UseCase) checkReferences(ctx context.Context, d *domain.Drop) ([]string, error) {
	var violations []string

	articles, err := uc.articles.GetByIDs(ctx, d.ArticleIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	for _, id := range d.ArticleIDs {
		a, ok := byID[id]
		if !ok {
			violations = append(violations, fmt.Sprintf("unknown article %q", id))
			continue
		}
		if !a.IsAvailable() {
			violations = append(violations, fmt.Sprintf("article %q is not available", id))
		}
	}

	groups, err := uc.groups.GetByIDs(ctx, d.GroupIDs)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		known[g.ID] = struct{}{}
	}
	for _, id := range d.GroupIDs {
		if _, ok := known[id]; !ok {
			violations = append(violations, fmt.Sprintf("unknown group %q", id))
		}
	}
	return violations, nil
}

// SendDrop runs the full dispatch pipeline: guard check, transition to
// SENDING, per-pair execution and the final SENT/FAILED transition.
func (uc *UseCase) SendDrop(ctx context.Context, id string) (*domain.Drop, error) {
	d, err := uc.drops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == domain.DropStatusFailed {
		return nil, domain.NewError(domain.ErrCodeInvalid, "failed drop must be retried explicitly")
	}
	return uc.dispatch(ctx, d, (*domain.Drop).BeginSending)
}

// RetryDrop re-runs dispatch for a FAILED drop. The guard re-evaluates
// against history, so pairs delivered by the failed attempt are now blocked
// and are not resent.
func (uc *UseCase) RetryDrop(ctx context.Context, id string) (*domain.Drop, error) {
	d, err := uc.drops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.dispatch(ctx, d, (*domain.Drop).BeginRetry)
}

func (uc *UseCase) dispatch(ctx context.Context, d *domain.Drop, begin func(*domain.Drop, time.Time) error) (*domain.Drop, error) {
	now := uc.clock.Now()

	result, err := uc.validate(ctx, d, now)
	if err != nil {
		return nil, err
	}
	// "sent nothing" must never look like "sent successfully": when no group
	// has an allowed article the transition is rejected with the full
	// per-group breakdown instead of completing with zero sends.
	if !result.CanSend {
		return nil, domain.NewErrorWithDetails(domain.ErrCodeInvalid, "drop cannot be sent", result)
	}

	if err := begin(d, now); err != nil {
		return nil, err
	}
	if err := uc.drops.Update(ctx, d); err != nil {
		return nil, err
	}

	// The dispatch outlives the incoming request deadline but stays bounded,
	// so the drop reaches SENT or FAILED deterministically.
	dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.dispatchTimeout)
	defer cancel()

	outcomes := uc.executor.Execute(dispatchCtx, d, result.PerGroup)
	articlesSent, groupsSent, allSucceeded := summarize(outcomes)

	if err := d.CompleteSending(articlesSent, groupsSent, allSucceeded, uc.clock.Now()); err != nil {
		return nil, err
	}
	if err := uc.drops.Update(dispatchCtx, d); err != nil {
		return nil, err
	}

	uc.logger.Info("drop dispatch finished",
		zap.String("drop_id", d.ID),
		zap.String("status", string(d.Status)),
		zap.Int("articles_sent", articlesSent),
		zap.Int("groups_sent", groupsSent),
		zap.Int("attempted_pairs", len(outcomes)))
	return d, nil
}

// DispatchDue sends every SCHEDULED drop whose time has come. Invoked by the
// scheduler sweep; failures are logged per drop and never stop the sweep.
func (uc *UseCase) DispatchDue(ctx context.Context) error {
	due, err := uc.drops.ListDue(ctx, uc.clock.Now())
	if err != nil {
		return err
	}
	for i := range due {
		if _, err := uc.SendDrop(ctx, due[i].ID); err != nil {
			uc.logger.Error("scheduled dispatch failed",
				zap.String("drop_id", due[i].ID),
				zap.Error(err))
		}
	}
	return nil
}

// ScheduleDrop sets or moves the dispatch time of a pending drop.
func (uc *UseCase) ScheduleDrop(ctx context.Context, id string, when time.Time) (*domain.Drop, error) {
	d, err := uc.drops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.Schedule(when, uc.clock.Now()); err != nil {
		return nil, err
	}
	if err := uc.drops.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// CancelDrop cancels a drop that has not started sending.
func (uc *UseCase) CancelDrop(ctx context.Context, id string) (*domain.Drop, error) {
	d, err := uc.drops.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.Cancel(uc.clock.Now()); err != nil {
		return nil, err
	}
	if err := uc.drops.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func summarize(outcomes []PairOutcome) (articlesSent, groupsSent int, allSucceeded bool) {
	articles := make(map[string]struct{})
	groups := make(map[string]struct{})
	allSucceeded = true
	for _, o := range outcomes {
		if o.Outcome != domain.SendOutcomeSuccess {
			allSucceeded = false
			continue
		}
		articles[o.ArticleID] = struct{}{}
		groups[o.GroupID] = struct{}{}
	}
	return len(articles), len(groups), allSucceeded
}
