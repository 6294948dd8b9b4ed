package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dicetower/dicebox/internal/dice"
	"github.com/dicetower/dicebox/internal/history"
)

// Store persists roll history in the rolls and roll_entries tables managed
// by the migrations under migrations/.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a Store backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the
// roll-history schema applied.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Record inserts the roll and its per-die entries in one transaction.
//
// Postcondition: Either the roll and all its entries are stored, or nothing is.
func (s *Store) Record(ctx context.Context, result dice.RollResult) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO rolls (id, rolled_at, notation, subtotal, modifier, total)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.Timestamp, result.Input,
		result.Subtotal, result.Modifier, result.Total,
	)
	if err != nil {
		return fmt.Errorf("inserting roll: %w", err)
	}

	for i, entry := range result.Rolls {
		_, err = tx.Exec(ctx,
			`INSERT INTO roll_entries
			   (roll_id, idx, die, value, kept, dropped, exploded, rerolled, original_value)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			result.ID, i, entry.Die, entry.Value,
			entry.Kept, entry.Dropped, entry.Exploded, entry.Rerolled,
			entry.OriginalValue,
		)
		if err != nil {
			return fmt.Errorf("inserting roll entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing roll: %w", err)
	}
	return nil
}

// Recent returns up to limit rolls, newest first, each with its entries in
// generation order.
func (s *Store) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, rolled_at, notation, subtotal, modifier, total
		 FROM rolls
		 ORDER BY rolled_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying rolls: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	index := make(map[string]int)
	for rows.Next() {
		var e history.Entry
		if err := rows.Scan(&e.ID, &e.RolledAt, &e.Notation, &e.Subtotal, &e.Modifier, &e.Total); err != nil {
			return nil, fmt.Errorf("scanning roll: %w", err)
		}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rolls: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	entryRows, err := s.db.Query(ctx,
		`SELECT roll_id, die, value, kept, dropped, exploded, rerolled, original_value
		 FROM roll_entries
		 WHERE roll_id = ANY($1)
		 ORDER BY roll_id, idx`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("querying roll entries: %w", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var rollID string
		var roll dice.RollEntry
		if err := entryRows.Scan(&rollID, &roll.Die, &roll.Value,
			&roll.Kept, &roll.Dropped, &roll.Exploded, &roll.Rerolled,
			&roll.OriginalValue); err != nil {
			return nil, fmt.Errorf("scanning roll entry: %w", err)
		}
		i, ok := index[rollID]
		if !ok {
			continue
		}
		entries[i].Rolls = append(entries[i].Rolls, roll)
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roll entries: %w", err)
	}

	return entries, nil
}

// Close is a no-op; the pool's lifecycle belongs to its creator.
func (s *Store) Close() error {
	return nil
}
