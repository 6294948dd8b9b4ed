package history

import (
	"context"
	"sync"

	"github.com/dicetower/dicebox/internal/dice"
)

// MemoryStore is a bounded in-process roll history. Once the bound is
// reached the oldest entry is evicted on each Record.
//
// MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry // oldest first
	limit   int
	closed  bool
}

// NewMemoryStore creates a MemoryStore retaining at most limit entries.
//
// Precondition: limit must be >= 1.
func NewMemoryStore(limit int) *MemoryStore {
	if limit < 1 {
		panic("history: NewMemoryStore requires limit >= 1")
	}
	return &MemoryStore{limit: limit}
}

// Record stores result, evicting the oldest entry when full.
func (s *MemoryStore) Record(ctx context.Context, result dice.RollResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.entries = append(s.entries, FromResult(result))
	if len(s.entries) > s.limit {
		s.entries = s.entries[1:]
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	n := len(s.entries)
	if limit < n {
		n = limit
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]Entry, 0, n)
	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Close marks the store closed; subsequent operations return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	return nil
}
