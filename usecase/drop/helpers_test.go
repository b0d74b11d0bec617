package drop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropwave/backend/domain"
	"github.com/dropwave/backend/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (s *seqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

// memHistory is an in-memory SendHistoryRepository enforcing the same-day
// uniqueness constraint over successful entries, like the partial index does.
type memHistory struct {
	mu      sync.Mutex
	entries []domain.SendHistoryEntry
	pairs   map[string]struct{}
	failOn  func(entry *domain.SendHistoryEntry) error
}

func newMemHistory() *memHistory {
	return &memHistory{pairs: make(map[string]struct{})}
}

func (m *memHistory) ListForGroupBetween(_ context.Context, groupID string, from, to time.Time) ([]domain.SendHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SendHistoryEntry
	for _, e := range m.entries {
		if e.GroupID != groupID || e.Outcome != domain.SendOutcomeSuccess {
			continue
		}
		if e.SentAt.Before(from) || e.SentAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memHistory) Record(_ context.Context, entry *domain.SendHistoryEntry, dayBucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		if err := m.failOn(entry); err != nil {
			return err
		}
	}
	if entry.Outcome == domain.SendOutcomeSuccess {
		key := entry.ArticleID + "|" + entry.GroupID + "|" + dayBucket
		if _, dup := m.pairs[key]; dup {
			return domain.ErrPairAlreadySent
		}
		m.pairs[key] = struct{}{}
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memHistory) all() []domain.SendHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SendHistoryEntry(nil), m.entries...)
}

type memDrops struct {
	mu    sync.Mutex
	drops map[string]*domain.Drop
}

func newMemDrops(drops ...*domain.Drop) *memDrops {
	m := &memDrops{drops: make(map[string]*domain.Drop)}
	for _, d := range drops {
		copied := *d
		m.drops[d.ID] = &copied
	}
	return m
}

func (m *memDrops) GetByID(_ context.Context, id string) (*domain.Drop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drops[id]
	if !ok {
		return nil, domain.ErrDropNotFound
	}
	copied := *d
	return &copied, nil
}

func (m *memDrops) List(_ context.Context, filter repository.DropFilter) ([]domain.Drop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Drop
	for _, d := range m.drops {
		if filter.Status != "" && string(d.Status) != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *memDrops) ListDue(_ context.Context, before time.Time) ([]domain.Drop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Drop
	for _, d := range m.drops {
		if d.Status == domain.DropStatusScheduled && d.ScheduledFor != nil && !d.ScheduledFor.After(before) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *memDrops) Create(_ context.Context, d *domain.Drop) (*domain.Drop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *d
	m.drops[d.ID] = &copied
	return d, nil
}

func (m *memDrops) Update(_ context.Context, d *domain.Drop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drops[d.ID]; !ok {
		return domain.ErrDropNotFound
	}
	copied := *d
	m.drops[d.ID] = &copied
	return nil
}

func (m *memDrops) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drops[id]; !ok {
		return domain.ErrDropNotFound
	}
	delete(m.drops, id)
	return nil
}

type memArticles struct {
	articles map[string]domain.Article
}

func newMemArticles(ids ...string) *memArticles {
	m := &memArticles{articles: make(map[string]domain.Article)}
	for _, id := range ids {
		m.articles[id] = domain.Article{ID: id, Name: "article " + id, Stock: 5, Status: domain.ArticleStatusAvailable}
	}
	return m
}

func (m *memArticles) GetByID(_ context.Context, id string) (*domain.Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	return &a, nil
}

func (m *memArticles) GetByIDs(_ context.Context, ids []string) ([]domain.Article, error) {
	var out []domain.Article
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

type memGroups struct {
	groups map[string]domain.Group
}

func newMemGroups(ids ...string) *memGroups {
	m := &memGroups{groups: make(map[string]domain.Group)}
	for _, id := range ids {
		m.groups[id] = domain.Group{ID: id, Name: "group " + id}
	}
	return m
}

func (m *memGroups) GetByID(_ context.Context, id string) (*domain.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}
	return &g, nil
}

func (m *memGroups) GetByIDs(_ context.Context, ids []string) ([]domain.Group, error) {
	var out []domain.Group
	for _, id := range ids {
		if g, ok := m.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// stubSender records calls and fails pairs listed in failPairs ("article|group").
type stubSender struct {
	mu        sync.Mutex
	calls     []string
	failPairs map[string]error
	delay     time.Duration
	inFlight  int
	maxSeen   int
}

func newStubSender() *stubSender {
	return &stubSender{failPairs: make(map[string]error)}
}

func (s *stubSender) failPair(articleID, groupID string, err error) {
	s.failPairs[articleID+"|"+groupID] = err
}

func (s *stubSender) SendMessage(ctx context.Context, groupID, payload string) error {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			s.mu.Lock()
			s.inFlight--
			s.mu.Unlock()
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--

	// payload is "<template or name>\n<article id>"
	articleID := payload[lastNewline(payload)+1:]
	key := articleID + "|" + groupID
	s.calls = append(s.calls, key)
	if err, ok := s.failPairs[key]; ok {
		return err
	}
	return nil
}

func (s *stubSender) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func lastNewline(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}
