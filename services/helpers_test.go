package services

import (
	"testing"

	"calorietrack/config"
	"calorietrack/logger"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupHTTPMock routes http.DefaultTransport through httpmock for the test.
// Tests using it must not run in parallel.
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

// newTestDB opens a migrated in-memory sqlite database. The pool is pinned
// to one connection since each sqlite memory connection is its own database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.InitDB(config.DBConfig{Driver: "sqlite", SQLitePath: "file::memory:"}, logger.Discard())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))
	return db
}

func ptr[T any](v T) *T { return &v }
