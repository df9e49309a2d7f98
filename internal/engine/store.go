package engine

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/abhisek/persona/internal/session"
	"github.com/abhisek/persona/internal/store"
)

// SessionStore persists flat session records. Get returns an error
// wrapping store.ErrNotFound for unknown ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (session.Record, error)
	Put(ctx context.Context, id string, rec session.Record) error
	Delete(ctx context.Context, id string) error
}

// EventRecorder receives the engine's audit events. Failures are logged
// and never fail the operation that produced the event.
type EventRecorder interface {
	AppendResponseEvent(ctx context.Context, data store.ResponseEventData) error
	AppendLifecycleEvent(ctx context.Context, data store.LifecycleEventData) error
}

// MemoryStore is a SessionStore backed by a map. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]session.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]session.Record)}
}

// Get implements SessionStore.
func (m *MemoryStore) Get(_ context.Context, id string) (session.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return maps.Clone(rec), nil
}

// Put implements SessionStore.
func (m *MemoryStore) Put(_ context.Context, id string, rec session.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = maps.Clone(rec)
	return nil
}

// Delete implements SessionStore. Deleting an unknown id is a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// IDs returns the stored session ids, sorted.
func (m *MemoryStore) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
