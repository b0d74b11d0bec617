package drop

import (
	"context"
	"time"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

// Guard evaluates the same-day rule: a given article goes to a given group at
// most once per calendar day, across all drops. It only reads the history
// log, so evaluations are side-effect free and safe to repeat; the binding
// enforcement is the storage constraint checked on write.
type Guard struct {
	history  repository.SendHistoryRepository
	location *time.Location
}

// NewGuard builds a Guard evaluating days in the given reference timezone.
func NewGuard(history repository.SendHistoryRepository, location *time.Location) *Guard {
	if location == nil {
		location = time.UTC
	}
	return &Guard{history: history, location: location}
}

// Evaluate partitions the article set per group into allowed and blocked,
// based on successful sends recorded within the reference day. Article order
// is preserved, so repeated evaluations over unchanged history are identical.
func (g *Guard) Evaluate(ctx context.Context, articleIDs []string, groups []domain.Group, referenceDate time.Time) ([]domain.GroupValidation, error) {
	from, to := domain.DayBounds(referenceDate, g.location)

	validations := make([]domain.GroupValidation, 0, len(groups))
	for _, group := range groups {
		entries, err := g.history.ListForGroupBetween(ctx, group.ID, from, to)
		if err != nil {
			return nil, err
		}

		sent := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			sent[entry.ArticleID] = struct{}{}
		}

		validation := domain.GroupValidation{
			GroupID:           group.ID,
			GroupName:         group.Name,
			AllowedArticleIDs: []string{},
			BlockedArticleIDs: []string{},
		}
		for _, articleID := range articleIDs {
			if _, blocked := sent[articleID]; blocked {
				validation.BlockedArticleIDs = append(validation.BlockedArticleIDs, articleID)
			} else {
				validation.AllowedArticleIDs = append(validation.AllowedArticleIDs, articleID)
			}
		}

		if len(validation.BlockedArticleIDs) > 0 {
			validation.Warnings = append(validation.Warnings, domain.BlockedWarning(len(validation.BlockedArticleIDs), group.Name))
		}
		if validation.Exhausted() {
			validation.Warnings = append(validation.Warnings, domain.ExhaustedWarning(group.Name))
		}

		validations = append(validations, validation)
	}
	return validations, nil
}
