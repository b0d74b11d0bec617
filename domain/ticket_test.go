package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTicketCanBeUsed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := &Ticket{ID: "t1", ExpiresAt: now.Add(time.Hour)}
	if err := fresh.CanBeUsed(now); err != nil {
		t.Fatalf("fresh ticket: %v", err)
	}

	usedAt := now.Add(-time.Minute)
	used := &Ticket{ID: "t2", IsUsed: true, UsedAt: &usedAt, UsedBy: "agent-7", ExpiresAt: now.Add(time.Hour)}
	err := used.CanBeUsed(now)
	if !IsDomainError(err, ErrCodeConflict) {
		t.Fatalf("used ticket: expected CONFLICT, got %v", err)
	}
	record, ok := ErrorDetails(err).(RedemptionRecord)
	if !ok {
		t.Fatalf("expected RedemptionRecord details, got %T", ErrorDetails(err))
	}
	if record.UsedBy != "agent-7" || record.UsedAt == nil || !record.UsedAt.Equal(usedAt) {
		t.Errorf("redemption record incomplete: %+v", record)
	}

	expired := &Ticket{ID: "t3", ExpiresAt: now.Add(-time.Second)}
	if err := expired.CanBeUsed(now); !errors.Is(err, ErrTicketExpired) {
		t.Fatalf("expired ticket: expected ErrTicketExpired, got %v", err)
	}

	// used wins over expired so a second scanner always sees who redeemed it
	usedAndExpired := &Ticket{ID: "t4", IsUsed: true, UsedAt: &usedAt, ExpiresAt: now.Add(-time.Hour)}
	if err := usedAndExpired.CanBeUsed(now); !IsDomainError(err, ErrCodeConflict) {
		t.Fatalf("used+expired ticket: expected CONFLICT, got %v", err)
	}
}

func TestTicketIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if (&Ticket{ExpiresAt: now}).IsExpired(now) {
		t.Error("ticket expiring exactly now should still be valid")
	}
	if !(&Ticket{ExpiresAt: now.Add(-time.Nanosecond)}).IsExpired(now) {
		t.Error("past expiry should be expired")
	}
}
