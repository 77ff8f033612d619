// Package testkit holds helpers shared by seedkit's tests and by projects
// testing their own seeds.
//
//	func TestUsersSeed(t *testing.T) {
//	    db := testkit.OpenDB(t)
//	    testkit.Exec(t, db, "CREATE TABLE users (name TEXT, email TEXT PRIMARY KEY)")
//	    testkit.ApplyTwice(t, db, applyUsers)
//	}
package testkit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/seedkit/pkg/database"
	"github.com/shashiranjanraj/seedkit/pkg/seeder"
)

// OpenDB opens a file-backed sqlite database in t.TempDir and closes it when
// the test ends.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "testkit: open sqlite")
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// Exec runs each statement and fails the test on the first error.
func Exec(t testing.TB, db *gorm.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		require.NoError(t, db.Exec(s).Error, "testkit: %s", s)
	}
}

// Count returns the number of rows in table.
func Count(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error, "testkit: count %s", table)
	return n
}

// ApplyTwice runs apply twice in separate transactions. Seeds must be safe to
// re-run, so both calls have to succeed.
func ApplyTwice(t testing.TB, db *gorm.DB, apply seeder.Func) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error { return apply(ctx, tx) })
		require.NoError(t, err, "testkit: apply #%d", i)
	}
}
