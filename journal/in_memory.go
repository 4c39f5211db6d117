package journal

import "sync"

// InMemoryStore is a volatile Store keeping entries in a process local
// slice. It is safe for concurrent access and best suited for tests, the CLI
// and ephemeral proxies. Returned slices are copies.
type InMemoryStore struct {
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
}

// NewInMemoryStore constructs an empty store. When maxEntries is positive
// only the newest maxEntries entries are kept.
func NewInMemoryStore(maxEntries int) *InMemoryStore {
	return &InMemoryStore{maxEntries: maxEntries}
}

// Append implements Store.
func (s *InMemoryStore) Append(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		s.entries = append([]Entry(nil), s.entries[len(s.entries)-s.maxEntries:]...)
	}
	return nil
}

// Entries implements Store. Entries are returned oldest first.
func (s *InMemoryStore) Entries() ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...), nil
}

// Len returns the number of stored entries.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops all entries.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
