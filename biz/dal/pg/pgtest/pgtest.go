// Package pgtest opens throwaway ledger databases for tests.
package pgtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"portfolio-ledger/biz/dal/pg"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewDB returns a migrated in-memory SQLite database behind gorm.
// The pool is pinned to one connection: every connection to ":memory:" would otherwise see its own empty
// database, and a single connection also serializes transactions the way row locks do on Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, pg.AutoMigrate(db))
	return db
}
