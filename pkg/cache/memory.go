package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store. It backs unit tests and RAM-only
// deployments where persistence across restarts is not needed.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		namespaces: make(map[string]map[string]*Entry),
	}
}

// Get retrieves an entry. Returns ErrCacheMiss if the key doesn't exist.
func (s *MemoryStore) Get(_ context.Context, ns Namespace, key Key) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.namespaces[ns.String()][key.String()]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.WithLabelValues(ns.Family).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(ns.Family).Inc()
	// Clone so callers cannot mutate the stored snapshot.
	return entry.Clone(), nil
}

// Set stores an entry, overwriting any existing one.
func (s *MemoryStore) Set(_ context.Context, ns Namespace, key Key, entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}

	s.mu.Lock()
	entries, ok := s.namespaces[ns.String()]
	if !ok {
		entries = make(map[string]*Entry)
		s.namespaces[ns.String()] = entries
	}
	entries[key.String()] = entry.Clone()
	s.mu.Unlock()

	return nil
}

// Delete removes an entry. Idempotent.
func (s *MemoryStore) Delete(_ context.Context, ns Namespace, key Key) error {
	s.mu.Lock()
	delete(s.namespaces[ns.String()], key.String())
	s.mu.Unlock()
	return nil
}

// Namespaces enumerates all namespaces holding at least one entry.
func (s *MemoryStore) Namespaces(_ context.Context) ([]Namespace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Namespace
	for name, entries := range s.namespaces {
		if len(entries) == 0 {
			continue
		}
		if ns, ok := ParseNamespace(name); ok {
			out = append(out, ns)
		}
	}
	return out, nil
}

// DropNamespace deletes the namespace and all of its entries.
func (s *MemoryStore) DropNamespace(_ context.Context, ns Namespace) error {
	s.mu.Lock()
	delete(s.namespaces, ns.String())
	s.mu.Unlock()
	return nil
}

// Len reports the number of entries in the namespace.
func (s *MemoryStore) Len(_ context.Context, ns Namespace) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[ns.String()]), nil
}

// Keys lists the key strings stored in the namespace.
func (s *MemoryStore) Keys(_ context.Context, ns Namespace) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.namespaces[ns.String()]
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
