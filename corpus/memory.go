package corpus

import (
	"context"
	"sort"
	"sync"
)

// Verify interface compliance
var _ Repository = (*Memory)(nil)

// Memory is an in-process Repository, used in tests and when no database
// is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

// Put adds or replaces an entry.
func (m *Memory) Put(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
}

// Remove deletes an entry by id.
func (m *Memory) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
}

// Published returns every stored entry except the excluded id, newest
// first with ties broken by id, matching the postgres adapter's ordering.
func (m *Memory) Published(_ context.Context, excludeID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, 0, len(m.entries))
	for id, entry := range m.entries {
		if id == excludeID {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
