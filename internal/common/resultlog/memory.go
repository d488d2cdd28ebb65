package resultlog

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in process. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryStore) Recent(_ context.Context, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.entries, n), nil
}

// Len reports how many entries were appended.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func tail(entries []Entry, n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}
	start := len(entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(entries)-start)
	copy(out, entries[start:])
	return out
}
