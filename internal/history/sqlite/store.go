// Package sqlite provides a SQLite-backed roll-history store for local,
// single-user use.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dicetower/dicebox/internal/dice"
	"github.com/dicetower/dicebox/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS rolls (
	id       TEXT    PRIMARY KEY,
	rolled_at INTEGER NOT NULL,
	notation TEXT    NOT NULL,
	subtotal INTEGER NOT NULL,
	modifier INTEGER NOT NULL,
	total    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rolls_rolled_at ON rolls (rolled_at DESC);
CREATE TABLE IF NOT EXISTS roll_entries (
	roll_id        TEXT    NOT NULL REFERENCES rolls (id) ON DELETE CASCADE,
	idx            INTEGER NOT NULL,
	die            TEXT    NOT NULL,
	value          INTEGER NOT NULL,
	kept           INTEGER NOT NULL,
	dropped        INTEGER NOT NULL,
	exploded       INTEGER NOT NULL,
	rerolled       INTEGER NOT NULL,
	original_value INTEGER,
	PRIMARY KEY (roll_id, idx)
);
`

// Store persists roll history in a SQLite database file.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite history store at path and applies
// the schema.
//
// Precondition: path must be non-empty.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite history path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record inserts the roll and its per-die entries in one transaction.
func (s *Store) Record(ctx context.Context, result dice.RollResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO rolls (id, rolled_at, notation, subtotal, modifier, total)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.ID, result.Timestamp.UTC().UnixMilli(), result.Input,
		result.Subtotal, result.Modifier, result.Total,
	)
	if err != nil {
		return fmt.Errorf("insert roll: %w", err)
	}

	for i, entry := range result.Rolls {
		var original any
		if entry.OriginalValue != nil {
			original = *entry.OriginalValue
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO roll_entries
			   (roll_id, idx, die, value, kept, dropped, exploded, rerolled, original_value)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			result.ID, i, entry.Die, entry.Value,
			boolToInt(entry.Kept), boolToInt(entry.Dropped),
			boolToInt(entry.Exploded), boolToInt(entry.Rerolled),
			original,
		)
		if err != nil {
			return fmt.Errorf("insert roll entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit roll: %w", err)
	}
	return nil
}

// Recent returns up to limit rolls, newest first, each with its entries in
// generation order.
func (s *Store) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, rolled_at, notation, subtotal, modifier, total
		 FROM rolls
		 ORDER BY rolled_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query rolls: %w", err)
	}
	defer rows.Close()

	var entries []history.Entry
	index := make(map[string]int)
	for rows.Next() {
		var e history.Entry
		var millis int64
		if err := rows.Scan(&e.ID, &millis, &e.Notation, &e.Subtotal, &e.Modifier, &e.Total); err != nil {
			return nil, fmt.Errorf("scan roll: %w", err)
		}
		e.RolledAt = fromMillis(millis)
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rolls: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	for i := range entries {
		rolls, err := s.entriesFor(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Rolls = rolls
	}
	return entries, nil
}

func (s *Store) entriesFor(ctx context.Context, rollID string) ([]dice.RollEntry, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT die, value, kept, dropped, exploded, rerolled, original_value
		 FROM roll_entries
		 WHERE roll_id = ?
		 ORDER BY idx`,
		rollID,
	)
	if err != nil {
		return nil, fmt.Errorf("query roll entries: %w", err)
	}
	defer rows.Close()

	var rolls []dice.RollEntry
	for rows.Next() {
		var entry dice.RollEntry
		var kept, dropped, exploded, rerolled int
		var original sql.NullInt64
		if err := rows.Scan(&entry.Die, &entry.Value, &kept, &dropped, &exploded, &rerolled, &original); err != nil {
			return nil, fmt.Errorf("scan roll entry: %w", err)
		}
		entry.Kept = kept != 0
		entry.Dropped = dropped != 0
		entry.Exploded = exploded != 0
		entry.Rerolled = rerolled != 0
		if original.Valid {
			v := int(original.Int64)
			entry.OriginalValue = &v
		}
		rolls = append(rolls, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roll entries: %w", err)
	}
	return rolls, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
