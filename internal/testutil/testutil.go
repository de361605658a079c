// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"context"
	"regexp"
	"testing"

	"github.com/rs/zerolog"

	"github.com/schoolpay/user-service/internal/infrastructure/db/sqlstore"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// OpenInMemoryDB opens a private in-memory SQLite database named after the
// test and applies migrations. Caller gets it closed via t.Cleanup.
func OpenInMemoryDB(t testing.TB) *sqlstore.DB {
	t.Helper()
	// A shared-cache memory database lives as long as one connection does,
	// so the pool is pinned to a single connection.
	name := unsafeName.ReplaceAllString(t.Name(), "_")
	db, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver:   sqlstore.DialectSQLite,
		DSN:      "file:" + name + "?mode=memory&cache=shared",
		PoolSize: 1,
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
