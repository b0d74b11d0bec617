package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dropwave/backend/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"), "journal")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func entryFor(id, articleID string) Entry {
	return FromHistory(&domain.SendHistoryEntry{
		ID:        id,
		DropID:    "d1",
		ArticleID: articleID,
		GroupID:   "g1",
		SentAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Outcome:   domain.SendOutcomeSuccess,
	}, "2025-06-01")
}

func TestEnqueueGetBatchRemove(t *testing.T) {
	store := openTestStore(t)

	for i, id := range []string{"e1", "e2", "e3"} {
		e := entryFor(id, "a1")
		e.Timestamp = time.Now().Add(time.Duration(i) * time.Millisecond)
		if err := store.Enqueue(e); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	size, err := store.Size()
	if err != nil || size != 3 {
		t.Fatalf("Size: %d, %v", size, err)
	}

	batch, err := store.GetBatch(2)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("batch size: %d", len(batch))
	}

	// GetBatch does not consume
	size, _ = store.Size()
	if size != 3 {
		t.Errorf("GetBatch consumed entries: size %d", size)
	}

	for _, e := range batch {
		if err := store.Remove(e); err != nil {
			t.Fatalf("Remove: %v", err)
		}
	}
	size, _ = store.Size()
	if size != 1 {
		t.Errorf("after remove: size %d", size)
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	store := openTestStore(t)
	original := &domain.SendHistoryEntry{
		ID:        "e1",
		DropID:    "d1",
		ArticleID: "a1",
		GroupID:   "g1",
		SentAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Outcome:   domain.SendOutcomeFailure,
		Error:     "gateway unreachable",
	}

	if err := store.Enqueue(FromHistory(original, "2025-06-01")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	batch, err := store.GetBatch(1)
	if err != nil || len(batch) != 1 {
		t.Fatalf("GetBatch: %v (%d entries)", err, len(batch))
	}

	if batch[0].DayBucket != "2025-06-01" {
		t.Errorf("day bucket lost: %q", batch[0].DayBucket)
	}
	restored := batch[0].ToHistory()
	if restored.ID != original.ID ||
		restored.ArticleID != original.ArticleID ||
		restored.GroupID != original.GroupID ||
		restored.Outcome != original.Outcome ||
		restored.Error != original.Error ||
		!restored.SentAt.Equal(original.SentAt) {
		t.Errorf("roundtrip mismatch: %+v", restored)
	}
}

func TestRequeueKeepsEntry(t *testing.T) {
	store := openTestStore(t)
	if err := store.Enqueue(entryFor("e1", "a1")); err != nil {
		t.Fatal(err)
	}

	batch, _ := store.GetBatch(1)
	entry := batch[0]
	entry.Retries++

	if err := store.Remove(entry); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Requeue(entry); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	batch, _ = store.GetBatch(1)
	if len(batch) != 1 || batch[0].Retries != 1 {
		t.Fatalf("requeued entry lost retry count: %+v", batch)
	}
}

func TestCleanupRemovesOldEntries(t *testing.T) {
	store := openTestStore(t)

	old := entryFor("old", "a1")
	old.Timestamp = time.Now().Add(-48 * time.Hour)
	recent := entryFor("recent", "a2")
	recent.Timestamp = time.Now()

	if err := store.Enqueue(old); err != nil {
		t.Fatal(err)
	}
	if err := store.Enqueue(recent); err != nil {
		t.Fatal(err)
	}

	if err := store.Cleanup(time.Now().Add(-24 * time.Hour)); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	batch, _ := store.GetBatch(10)
	if len(batch) != 1 || batch[0].ID != "recent" {
		t.Fatalf("cleanup kept the wrong entries: %+v", batch)
	}
}
