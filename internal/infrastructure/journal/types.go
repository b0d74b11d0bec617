package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropwave/backend/domain"
)

// Entry is a send outcome that could not be written to the history store at
// dispatch time (db blip mid-dispatch). It is replayed by the drainer; the
// day-bucket constraint in Postgres stays authoritative on replay.
type Entry struct {
	ID        string             `json:"id"`
	DropID    string             `json:"drop_id"`
	ArticleID string             `json:"article_id"`
	GroupID   string             `json:"group_id"`
	DayBucket string             `json:"day_bucket"`
	SentAt    time.Time          `json:"sent_at"`
	Outcome   domain.SendOutcome `json:"outcome"`
	Error     string             `json:"error,omitempty"`
	Retries   int                `json:"retries"`
	Timestamp time.Time          `json:"timestamp"`

	bucketKey []byte
}

// FromHistory wraps a history entry for journaling.
func FromHistory(e *domain.SendHistoryEntry, dayBucket string) Entry {
	return Entry{
		ID:        e.ID,
		DropID:    e.DropID,
		ArticleID: e.ArticleID,
		GroupID:   e.GroupID,
		DayBucket: dayBucket,
		SentAt:    e.SentAt,
		Outcome:   e.Outcome,
		Error:     e.Error,
	}
}

// ToHistory converts the journaled entry back for replay.
func (e Entry) ToHistory() *domain.SendHistoryEntry {
	return &domain.SendHistoryEntry{
		ID:        e.ID,
		DropID:    e.DropID,
		ArticleID: e.ArticleID,
		GroupID:   e.GroupID,
		SentAt:    e.SentAt,
		Outcome:   e.Outcome,
		Error:     e.Error,
	}
}

func (e *Entry) normalize() {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
}

// buildKey orders entries by arrival so replay is roughly chronological.
func buildKey(e Entry) string {
	return fmt.Sprintf("%d:%s", e.Timestamp.UnixNano(), e.ID)
}
