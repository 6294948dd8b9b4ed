// Package history records executed rolls and serves them back newest-first.
// The engine hands a store an immutable RollResult; the store owns its own
// snapshot from that point on.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/dicetower/dicebox/internal/dice"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// Entry is a persisted, immutable snapshot of one RollResult.
type Entry struct {
	ID       string
	RolledAt time.Time
	Notation string
	Rolls    []dice.RollEntry
	Subtotal int
	Modifier int
	Total    int
}

// FromResult converts a RollResult into a history Entry, copying the roll
// slice so later mutations by careless callers cannot reach the store.
func FromResult(result dice.RollResult) Entry {
	rolls := make([]dice.RollEntry, len(result.Rolls))
	copy(rolls, result.Rolls)
	return Entry{
		ID:       result.ID,
		RolledAt: result.Timestamp,
		Notation: result.Input,
		Rolls:    rolls,
		Subtotal: result.Subtotal,
		Modifier: result.Modifier,
		Total:    result.Total,
	}
}

// Store persists roll history.
type Store interface {
	// Record stores one result.
	Record(ctx context.Context, result dice.RollResult) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	// Close releases the store's resources.
	Close() error
}
