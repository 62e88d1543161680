package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "errsight/internal/db"
)

// SetupTestDB opens an in-memory SQLite handle and migrates the log table.
// The pool is pinned to one connection so every statement in the test sees
// the same in-memory database. Requires no external services.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "SetupTestDB: open")
	sqlDB, err := gdb.DB()
	require.NoError(t, err, "SetupTestDB: db handle")
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, gdb.AutoMigrate(&dbpkg.Log{}), "SetupTestDB: migrate")
	return gdb
}
