package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/narwhalmedia/querykit/pkg/database"
)

// NewTestDB creates a migrated in-memory SQLite database for testing.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.RunMigrations(db, nil))
	return db
}

// CleanupDB removes all rows from the sample schema.
func CleanupDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec("DELETE FROM posts").Error)
	require.NoError(t, db.Exec("DELETE FROM blogs").Error)
}
