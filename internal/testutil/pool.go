package testutil

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool starts a PostgreSQL container, applies the roll-history schema,
// and returns the raw pool. Container and pool are cleaned up with the test.
//
// Precondition: Docker must be available.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	return pc.RawPool
}
