package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewDropCollectsAllViolations(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	_, err := NewDrop("d1", "ab", nil, []string{"g1", "g1"}, "", &past, now)
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := ErrorDetails(err)
	violations, ok := details.([]string)
	if !ok {
		t.Fatalf("expected []string details, got %T", details)
	}
	if len(violations) != 4 {
		t.Fatalf("expected 4 violations, got %d: %v", len(violations), violations)
	}
	joined := strings.Join(violations, "; ")
	for _, want := range []string{"name", "at least one article", "duplicate group", "future"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing violation containing %q in %q", want, joined)
		}
	}
}

func TestNewDropStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	d, err := NewDrop("d1", "summer drop", []string{"a1"}, []string{"g1"}, "", nil, now)
	if err != nil {
		t.Fatalf("NewDrop: %v", err)
	}
	if d.Status != DropStatusDraft {
		t.Errorf("expected DRAFT, got %s", d.Status)
	}

	d, err = NewDrop("d2", "summer drop", []string{"a1"}, []string{"g1"}, "", &future, now)
	if err != nil {
		t.Fatalf("NewDrop scheduled: %v", err)
	}
	if d.Status != DropStatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", d.Status)
	}
}

func TestDropTransitionTable(t *testing.T) {
	cases := []struct {
		from    DropStatus
		to      DropStatus
		allowed bool
	}{
		{DropStatusDraft, DropStatusSending, true},
		{DropStatusDraft, DropStatusScheduled, true},
		{DropStatusDraft, DropStatusCancelled, true},
		{DropStatusDraft, DropStatusSent, false},
		{DropStatusScheduled, DropStatusSending, true},
		{DropStatusScheduled, DropStatusScheduled, true},
		{DropStatusScheduled, DropStatusCancelled, true},
		{DropStatusSending, DropStatusSent, true},
		{DropStatusSending, DropStatusFailed, true},
		{DropStatusSending, DropStatusCancelled, false},
		{DropStatusFailed, DropStatusSending, true},
		{DropStatusFailed, DropStatusCancelled, false},
		{DropStatusSent, DropStatusSending, false},
		{DropStatusCancelled, DropStatusSending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestDropTerminalStates(t *testing.T) {
	for _, s := range []DropStatus{DropStatusSent, DropStatusCancelled} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []DropStatus{DropStatusDraft, DropStatusScheduled, DropStatusSending, DropStatusFailed} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestDropScheduleRequiresFutureTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := &Drop{ID: "d1", Status: DropStatusDraft}

	if err := d.Schedule(now, now); err == nil {
		t.Error("scheduling at the current instant should fail")
	}
	if err := d.Schedule(now.Add(-time.Minute), now); err == nil {
		t.Error("scheduling in the past should fail")
	}

	when := now.Add(time.Hour)
	if err := d.Schedule(when, now); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if d.Status != DropStatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", d.Status)
	}
	if d.ScheduledFor == nil || !d.ScheduledFor.Equal(when) {
		t.Errorf("scheduled_for not set: %v", d.ScheduledFor)
	}

	// moving an already scheduled drop is allowed
	later := now.Add(2 * time.Hour)
	if err := d.Schedule(later, now); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !d.ScheduledFor.Equal(later) {
		t.Errorf("reschedule did not move the time: %v", d.ScheduledFor)
	}
}

func TestDropCancelOnlyBeforeSending(t *testing.T) {
	now := time.Now()

	d := &Drop{Status: DropStatusScheduled}
	if err := d.Cancel(now); err != nil {
		t.Fatalf("Cancel scheduled: %v", err)
	}
	if d.Status != DropStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", d.Status)
	}

	d = &Drop{Status: DropStatusSending}
	if err := d.Cancel(now); err == nil {
		t.Error("cancelling a SENDING drop should fail")
	}
}

func TestDropRetryOnlyFromFailed(t *testing.T) {
	now := time.Now()
	for _, s := range []DropStatus{DropStatusDraft, DropStatusScheduled, DropStatusSending, DropStatusSent, DropStatusCancelled} {
		d := &Drop{Status: s}
		if err := d.BeginRetry(now); err == nil {
			t.Errorf("retry from %s should fail", s)
		}
	}

	d := &Drop{Status: DropStatusFailed}
	if err := d.BeginRetry(now); err != nil {
		t.Fatalf("BeginRetry: %v", err)
	}
	if d.Status != DropStatusSending {
		t.Errorf("expected SENDING, got %s", d.Status)
	}
}

func TestDropCompleteSending(t *testing.T) {
	now := time.Now()

	d := &Drop{Status: DropStatusSending}
	if err := d.CompleteSending(3, 2, true, now); err != nil {
		t.Fatalf("CompleteSending: %v", err)
	}
	if d.Status != DropStatusSent {
		t.Errorf("expected SENT, got %s", d.Status)
	}
	if d.TotalArticlesSent != 3 || d.TotalGroupsSent != 2 {
		t.Errorf("counters not recorded: %d/%d", d.TotalArticlesSent, d.TotalGroupsSent)
	}

	d = &Drop{Status: DropStatusSending}
	if err := d.CompleteSending(1, 1, false, now); err != nil {
		t.Fatalf("CompleteSending partial: %v", err)
	}
	if d.Status != DropStatusFailed {
		t.Errorf("expected FAILED on partial success, got %s", d.Status)
	}
}

func TestDropIsDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	at := now.Add(-time.Minute)

	d := &Drop{Status: DropStatusScheduled, ScheduledFor: &at}
	if !d.IsDue(now) {
		t.Error("past scheduled drop should be due")
	}
	if !(&Drop{Status: DropStatusScheduled, ScheduledFor: &now}).IsDue(now) {
		t.Error("drop scheduled exactly now should be due")
	}

	future := now.Add(time.Minute)
	if (&Drop{Status: DropStatusScheduled, ScheduledFor: &future}).IsDue(now) {
		t.Error("future drop should not be due")
	}
	if (&Drop{Status: DropStatusDraft, ScheduledFor: &at}).IsDue(now) {
		t.Error("draft drop should not be due")
	}
}
