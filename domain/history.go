package domain

import "time"

// SendOutcome classifies a single per-pair send attempt.
type SendOutcome string

const (
	SendOutcomeSuccess SendOutcome = "SUCCESS"
	SendOutcomeFailure SendOutcome = "FAILURE"
)

// SendHistoryEntry is an immutable record of one send attempt of one article
// to one group. Entries are append-only and are the sole source of truth for
// the same-day distribution rule.
type SendHistoryEntry struct {
	ID        string      `json:"id"`
	DropID    string      `json:"drop_id"`
	ArticleID string      `json:"article_id"`
	GroupID   string      `json:"group_id"`
	SentAt    time.Time   `json:"sent_at"`
	Outcome   SendOutcome `json:"outcome"`
	Error     string      `json:"error,omitempty"`
}

// DayBucket collapses an instant to its calendar day in the reference
// timezone. Successful entries carry a uniqueness constraint on
// (article, group, day bucket), which is the actual same-day guarantee;
// the in-memory precheck only avoids pointless send attempts.
func DayBucket(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02")
}

// DayBounds returns the inclusive [start, end] instants of the calendar day
// containing t in the reference timezone. Both endpoints count as "today":
// an entry sent at exactly midnight or at 23:59:59.999999999 is inside.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start, end
}
