// Package dbtest opens throwaway in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/cozy-creator/house3d/internal/db"
	"github.com/cozy-creator/house3d/internal/db/drivers"

	"github.com/uptrace/bun"
)

var counter atomic.Int64

// NewDB returns a migrated database private to the calling test.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()

	ctx := context.Background()
	dsn := fmt.Sprintf("file:house3d_test_%d?mode=memory&cache=shared", counter.Add(1))
	driver, err := drivers.NewSQLiteDriver(ctx, drivers.SQLiteDriverName, dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { driver.Close() })

	if err := db.CreateTables(ctx, driver.GetDB()); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	return driver.GetDB()
}
