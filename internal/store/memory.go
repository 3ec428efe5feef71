package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/intervu/internal/interview"
)

// Memory is an in-process Store. Useful for local `intervu serve` runs and tests.
type Memory struct {
	mu      sync.RWMutex
	sets    map[string]interview.Set
	results []interview.ResultSummary
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		sets: make(map[string]interview.Set),
		now:  time.Now,
	}
}

func (m *Memory) LatestSet(_ context.Context, email string) (interview.Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.sets[normalizeEmail(email)]
	if !ok {
		return interview.Set{}, ErrNotFound
	}
	return cloneSet(set), nil
}

func (m *Memory) SaveSet(_ context.Context, email string, set interview.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[normalizeEmail(email)] = cloneSet(set)
	return nil
}

func (m *Memory) SaveResult(_ context.Context, row interview.ResultSummary) (interview.ResultSummary, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = m.now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, row)
	return row, nil
}

func (m *Memory) ListResults(_ context.Context, email string, limit int) ([]interview.ResultSummary, error) {
	m.mu.RLock()
	rows := make([]interview.ResultSummary, 0, len(m.results))
	for _, row := range m.results {
		if row.Email == email {
			rows = append(rows, row)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if limit = normalizeLimit(limit); len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *Memory) Close() error { return nil }

func cloneSet(set interview.Set) interview.Set {
	set.Questions = append([]interview.Question(nil), set.Questions...)
	return set
}
