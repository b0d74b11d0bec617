package domain

import (
	"fmt"
	"time"
)

// DropStatus is the dispatch lifecycle state of a drop.
type DropStatus string

const (
	DropStatusDraft     DropStatus = "DRAFT"
	DropStatusScheduled DropStatus = "SCHEDULED"
	DropStatusSending   DropStatus = "SENDING"
	DropStatusSent      DropStatus = "SENT"
	DropStatusFailed    DropStatus = "FAILED"
	DropStatusCancelled DropStatus = "CANCELLED"
)

// dropTransitions is the closed transition table of the dispatch state
// machine. FAILED -> SENDING is the explicit operator retry path.
var dropTransitions = map[DropStatus][]DropStatus{
	DropStatusDraft:     {DropStatusScheduled, DropStatusSending, DropStatusCancelled},
	DropStatusScheduled: {DropStatusScheduled, DropStatusSending, DropStatusCancelled},
	DropStatusSending:   {DropStatusSent, DropStatusFailed},
	DropStatusFailed:    {DropStatusSending},
	DropStatusSent:      {},
	DropStatusCancelled: {},
}

// CanTransition reports whether the state machine allows moving to the target status.
func (s DropStatus) CanTransition(to DropStatus) bool {
	for _, allowed := range dropTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s DropStatus) IsTerminal() bool {
	return len(dropTransitions[s]) == 0
}

// Bounds enforced on drop creation.
const (
	DropNameMinLen  = 3
	DropNameMaxLen  = 100
	DropMaxArticles = 20
	DropMaxGroups   = 10
)

// Drop is a broadcast of selected articles to selected WhatsApp groups.
// Article and group reference sets never contain duplicates.
type Drop struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	ArticleIDs        []string   `json:"article_ids"`
	GroupIDs          []string   `json:"group_ids"`
	MessageTemplate   string     `json:"message_template,omitempty"`
	ScheduledFor      *time.Time `json:"scheduled_for,omitempty"`
	Status            DropStatus `json:"status"`
	TotalArticlesSent int        `json:"total_articles_sent"`
	TotalGroupsSent   int        `json:"total_groups_sent"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// NewDrop constructs a DRAFT drop, reporting every validation violation at
// once rather than stopping at the first.
func NewDrop(id, name string, articleIDs, groupIDs []string, messageTemplate string, scheduledFor *time.Time, now time.Time) (*Drop, error) {
	var violations []string

	if l := len(name); l < DropNameMinLen || l > DropNameMaxLen {
		violations = append(violations, fmt.Sprintf("name must be between %d and %d characters", DropNameMinLen, DropNameMaxLen))
	}
	if len(articleIDs) == 0 {
		violations = append(violations, "at least one article is required")
	}
	if len(articleIDs) > DropMaxArticles {
		violations = append(violations, fmt.Sprintf("at most %d articles are allowed", DropMaxArticles))
	}
	if dup := firstDuplicate(articleIDs); dup != "" {
		violations = append(violations, fmt.Sprintf("duplicate article reference %q", dup))
	}
	if len(groupIDs) > DropMaxGroups {
		violations = append(violations, fmt.Sprintf("at most %d groups are allowed", DropMaxGroups))
	}
	if dup := firstDuplicate(groupIDs); dup != "" {
		violations = append(violations, fmt.Sprintf("duplicate group reference %q", dup))
	}
	if scheduledFor != nil && !scheduledFor.After(now) {
		violations = append(violations, "scheduled time must be in the future")
	}

	if len(violations) > 0 {
		return nil, NewErrorWithDetails(ErrCodeInvalid, "drop validation failed", violations)
	}

	status := DropStatusDraft
	if scheduledFor != nil {
		status = DropStatusScheduled
	}

	return &Drop{
		ID:              id,
		Name:            name,
		ArticleIDs:      append([]string(nil), articleIDs...),
		GroupIDs:        append([]string(nil), groupIDs...),
		MessageTemplate: messageTemplate,
		ScheduledFor:    scheduledFor,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (d *Drop) transition(to DropStatus, now time.Time) error {
	if !d.Status.CanTransition(to) {
		return NewError(ErrCodeInvalid, fmt.Sprintf("illegal drop transition from %s to %s", d.Status, to))
	}
	d.Status = to
	d.UpdatedAt = now
	return nil
}

// Schedule moves the drop to SCHEDULED for a strictly future time.
// Rescheduling an already scheduled drop is allowed.
func (d *Drop) Schedule(when, now time.Time) error {
	if !when.After(now) {
		return NewError(ErrCodeInvalid, "scheduled time must be in the future")
	}
	if err := d.transition(DropStatusScheduled, now); err != nil {
		return err
	}
	t := when
	d.ScheduledFor = &t
	return nil
}

// Cancel is only allowed before dispatch has started. Cancelling a SENDING
// drop would leave partial state undefined, so it is rejected.
func (d *Drop) Cancel(now time.Time) error {
	return d.transition(DropStatusCancelled, now)
}

// BeginSending moves a DRAFT or SCHEDULED drop into the SENDING phase.
func (d *Drop) BeginSending(now time.Time) error {
	if d.Status != DropStatusDraft && d.Status != DropStatusScheduled {
		return NewError(ErrCodeInvalid, fmt.Sprintf("drop in status %s cannot begin sending", d.Status))
	}
	return d.transition(DropStatusSending, now)
}

// BeginRetry moves a FAILED drop back into SENDING. Each retry is an explicit
// operator action; there is no automatic retry loop.
func (d *Drop) BeginRetry(now time.Time) error {
	if d.Status != DropStatusFailed {
		return NewError(ErrCodeInvalid, fmt.Sprintf("drop in status %s cannot be retried", d.Status))
	}
	return d.transition(DropStatusSending, now)
}

// CompleteSending finalizes the SENDING phase. Counters reflect the distinct
// articles and groups actually delivered, not the requested sets, so partial
// sends are recorded accurately.
func (d *Drop) CompleteSending(articlesSent, groupsSent int, allSucceeded bool, now time.Time) error {
	target := DropStatusSent
	if !allSucceeded {
		target = DropStatusFailed
	}
	if err := d.transition(target, now); err != nil {
		return err
	}
	d.TotalArticlesSent = articlesSent
	d.TotalGroupsSent = groupsSent
	return nil
}

// IsDue reports whether a scheduled drop should be dispatched now.
func (d *Drop) IsDue(now time.Time) bool {
	return d.Status == DropStatusScheduled && d.ScheduledFor != nil && !d.ScheduledFor.After(now)
}

func firstDuplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}
