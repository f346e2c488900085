// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/Voltaic314/DataRoom/db"
	"github.com/Voltaic314/DataRoom/db/tables"
	"github.com/stretchr/testify/require"
)

// Open returns a fresh in-memory DuckDB with the full schema applied and a
// write queue on user_logs. It is closed when the test ends.
func Open(t testing.TB) *db.DB {
	t.Helper()
	database, err := db.Open(context.Background(), db.Config{
		DSN:         "duckdb://",
		MaxAttempts: 1,
		RetryDelay:  time.Millisecond,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), tables.Migrations()))
	database.InitWriteQueue(tables.UserLogs, 50, time.Hour)
	t.Cleanup(database.Close)
	return database
}
