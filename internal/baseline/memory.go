package baseline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-pagesync/internal/identity"
)

type memoryRepository struct {
	mu   sync.RWMutex
	rows map[string]*Snapshot
}

// NewMemoryRepository constructs an in-memory snapshot repository. It backs
// tests and one-off CLI runs that do not want a database file.
func NewMemoryRepository() Repository {
	return &memoryRepository{rows: make(map[string]*Snapshot)}
}

func memoryKey(space, pageKey string) string {
	return space + "\x00" + NormalizePageKey(pageKey)
}

func (m *memoryRepository) Save(_ context.Context, snap *Snapshot) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cloned := cloneSnapshot(snap)
	cloned.PageKey = NormalizePageKey(cloned.PageKey)
	cloned.ID = identity.SnapshotUUID(cloned.Space, cloned.PageKey)
	now := time.Now().UTC()
	if existing, ok := m.rows[memoryKey(cloned.Space, cloned.PageKey)]; ok {
		cloned.CreatedAt = existing.CreatedAt
	} else {
		cloned.CreatedAt = now
	}
	cloned.UpdatedAt = now

	m.rows[memoryKey(cloned.Space, cloned.PageKey)] = cloned
	return cloneSnapshot(cloned), nil
}

func (m *memoryRepository) Get(_ context.Context, space, pageKey string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.rows[memoryKey(space, pageKey)]
	if !ok {
		return nil, &NotFoundError{Resource: "baseline", Key: space + "/" + NormalizePageKey(pageKey)}
	}
	return cloneSnapshot(snap), nil
}

func (m *memoryRepository) List(_ context.Context, space string) ([]*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Snapshot
	for _, snap := range m.rows {
		if snap.Space == space {
			out = append(out, cloneSnapshot(snap))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PageKey < out[j].PageKey })
	return out, nil
}

func (m *memoryRepository) Delete(_ context.Context, space, pageKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey(space, pageKey)
	if _, ok := m.rows[key]; !ok {
		return &NotFoundError{Resource: "baseline", Key: space + "/" + NormalizePageKey(pageKey)}
	}
	delete(m.rows, key)
	return nil
}
