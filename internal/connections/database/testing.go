package database

import (
	"context"
	"path/filepath"
	"testing"

	"table-orders/internal/config"
)

// OpenTestDB returns a migrated SQLite database in a temp dir, closed when
// the test ends.
func OpenTestDB(t testing.TB) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := ConnectDB(ctx, config.DatabaseConfig{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
