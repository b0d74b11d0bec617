package drop

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dropwave/backend/domain"
)

func testExecutor(sender MessageSender, recorder OutcomeRecorder, cfg ExecutorConfig) *Executor {
	clk := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewExecutor(sender, recorder, clk, &seqIDs{}, nil, cfg)
}

func allowed(groupID string, articleIDs ...string) domain.GroupValidation {
	return domain.GroupValidation{GroupID: groupID, AllowedArticleIDs: articleIDs, BlockedArticleIDs: []string{}}
}

func TestExecutorRecordsEveryAttempt(t *testing.T) {
	sender := newStubSender()
	history := newMemHistory()
	exec := testExecutor(sender, history, ExecutorConfig{})

	d := &domain.Drop{ID: "d1", Name: "launch"}
	outcomes := exec.Execute(context.Background(), d, []domain.GroupValidation{
		allowed("g1", "a1", "a2"),
		allowed("g2", "a1"),
	})

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if len(history.all()) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history.all()))
	}
	for _, o := range outcomes {
		if o.Outcome != domain.SendOutcomeSuccess {
			t.Errorf("pair %s/%s failed: %s", o.ArticleID, o.GroupID, o.Error)
		}
	}
}

func TestExecutorFailedPairDoesNotAbortRest(t *testing.T) {
	sender := newStubSender()
	sender.failPair("a1", "g1", errors.New("gateway refused"))
	history := newMemHistory()
	exec := testExecutor(sender, history, ExecutorConfig{})

	d := &domain.Drop{ID: "d1", Name: "launch"}
	outcomes := exec.Execute(context.Background(), d, []domain.GroupValidation{
		allowed("g1", "a1", "a2"),
	})

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	byPair := make(map[string]PairOutcome)
	for _, o := range outcomes {
		byPair[o.ArticleID+"|"+o.GroupID] = o
	}
	if byPair["a1|g1"].Outcome != domain.SendOutcomeFailure {
		t.Error("a1/g1 should have failed")
	}
	if byPair["a1|g1"].Error == "" {
		t.Error("failure outcome should carry the error message")
	}
	if byPair["a2|g1"].Outcome != domain.SendOutcomeSuccess {
		t.Error("a2/g1 should still have been attempted and succeeded")
	}

	// both attempts are in the history log, failure included
	var failures int
	for _, e := range history.all() {
		if e.Outcome == domain.SendOutcomeFailure {
			failures++
			if e.Error == "" {
				t.Error("failure entry should carry the error message")
			}
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure entry, got %d", failures)
	}
}

func TestExecutorSkipsExhaustedGroups(t *testing.T) {
	sender := newStubSender()
	history := newMemHistory()
	exec := testExecutor(sender, history, ExecutorConfig{})

	d := &domain.Drop{ID: "d1", Name: "launch"}
	outcomes := exec.Execute(context.Background(), d, []domain.GroupValidation{
		{GroupID: "g1", AllowedArticleIDs: []string{}, BlockedArticleIDs: []string{"a1"}},
		allowed("g2", "a1"),
	})

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].GroupID != "g2" {
		t.Errorf("exhausted group was dispatched: %+v", outcomes[0])
	}
}

func TestExecutorGroupConcurrencyCap(t *testing.T) {
	sender := newStubSender()
	sender.delay = 30 * time.Millisecond
	history := newMemHistory()
	exec := testExecutor(sender, history, ExecutorConfig{GroupConcurrency: 2})

	var perGroup []domain.GroupValidation
	for i := 0; i < 6; i++ {
		perGroup = append(perGroup, allowed(fmt.Sprintf("g%d", i), "a1"))
	}

	d := &domain.Drop{ID: "d1", Name: "launch"}
	outcomes := exec.Execute(context.Background(), d, perGroup)

	if len(outcomes) != 6 {
		t.Fatalf("expected 6 outcomes, got %d", len(outcomes))
	}
	if sender.maxSeen > 2 {
		t.Errorf("concurrency cap exceeded: saw %d in-flight sends", sender.maxSeen)
	}
}

func TestExecutorTimeoutRecordedAsFailure(t *testing.T) {
	sender := newStubSender()
	sender.delay = 200 * time.Millisecond
	history := newMemHistory()
	exec := testExecutor(sender, history, ExecutorConfig{PairTimeout: 20 * time.Millisecond})

	d := &domain.Drop{ID: "d1", Name: "launch"}
	outcomes := exec.Execute(context.Background(), d, []domain.GroupValidation{
		allowed("g1", "a1"),
	})

	if len(outcomes) != 1 || outcomes[0].Outcome != domain.SendOutcomeFailure {
		t.Fatalf("timed-out pair should fail: %+v", outcomes)
	}
	entries := history.all()
	if len(entries) != 1 || entries[0].Outcome != domain.SendOutcomeFailure {
		t.Fatal("timed-out pair must still be recorded")
	}
}

func TestExecutorLostRaceReportedAsFailure(t *testing.T) {
	sender := newStubSender()
	history := newMemHistory()
	// concurrent dispatch already committed this pair today
	seedSuccess(history, "a1", "g1", time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))
	exec := testExecutor(sender, history, ExecutorConfig{})

	d := &domain.Drop{ID: "d1", Name: "launch"}
	outcomes := exec.Execute(context.Background(), d, []domain.GroupValidation{
		allowed("g1", "a1"),
	})

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if outcomes[0].Outcome != domain.SendOutcomeFailure {
		t.Error("pair losing the same-day race must be reported as failure")
	}
}
