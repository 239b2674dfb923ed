// Package dbtest opens a migrated in-memory sqlite database for tests.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/iliyamo/store-rating/internal/database"
)

// New returns a fresh, migrated database private to the calling test.
func New(t testing.TB) *sql.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := database.Open(database.Options{Driver: database.DriverSQLite, Name: dsn})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db, database.DriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
