package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry holds one entry's fields with its last-write timestamp.
type memoryEntry struct {
	fields    map[string]string
	timestamp time.Time
}

// MemoryStore is a thread-safe in-memory store with TTL support. It is the
// default for tests and single-process deployments.
type MemoryStore struct {
	entries map[string]memoryEntry
	mu      sync.RWMutex
	ttl     time.Duration
}

// NewMemoryStore creates a new in-memory store with the specified TTL.
// If ttl is 0 or negative, entries never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// GetEntry returns a copy of the entry's fields, or an empty map on miss or
// expiry.
func (s *MemoryStore) GetEntry(_ context.Context, key Key) (map[string]string, error) {
	s.mu.RLock()
	entry, ok := s.entries[key.String()]
	s.mu.RUnlock()

	if !ok {
		return map[string]string{}, nil
	}

	if s.ttl > 0 && time.Since(entry.timestamp) > s.ttl {
		s.mu.Lock()
		delete(s.entries, key.String())
		s.mu.Unlock()
		return map[string]string{}, nil
	}

	out := make(map[string]string, len(entry.fields))
	for k, v := range entry.fields {
		out[k] = v
	}
	return out, nil
}

// PutEntries merges fields into the entry, refreshing its timestamp.
func (s *MemoryStore) PutEntries(_ context.Context, key Key, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key.String()]
	if !ok {
		entry = memoryEntry{fields: make(map[string]string, len(fields))}
	}
	for k, v := range fields {
		entry.fields[k] = v
	}
	entry.timestamp = time.Now()
	s.entries[key.String()] = entry
	return nil
}

// Len returns the number of entries in the store (including expired ones).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]memoryEntry)
}

var _ Store = (*MemoryStore)(nil)
