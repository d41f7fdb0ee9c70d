package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/db/drivers"
	"github.com/cozy-creator/house3d/internal/db/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/extra/bundebug"
)

func NewConnection(ctx context.Context, config *config.Config) (drivers.Driver, error) {
	var (
		driver drivers.Driver
		err    error
	)

	switch strings.ToLower(config.DB.Driver) {
	case "pg":
		driver, err = drivers.NewPGDriver(ctx, config.DB.DSN)
	case "sqlite":
		if err := ensureSQLiteDir(config.DB.DSN); err != nil {
			return nil, err
		}
		driver, err = drivers.NewSQLiteDriver(ctx, drivers.SQLiteDriverName, config.DB.DSN)
	case "libsql":
		driver, err = drivers.NewSQLiteDriver(ctx, drivers.LibSQLDriverName, config.DB.DSN)
	default:
		return nil, fmt.Errorf("invalid database driver: %s", config.DB.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", config.DB.Driver, err)
	}

	// Enabled with BUNDEBUG=1 (or 2 for every query)
	driver.GetDB().AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),
		bundebug.FromEnv(),
	))

	return driver, nil
}

// CreateTables creates every table and index the service needs if they are
// missing. Migrations under db/migrations do the same for managed deployments.
func CreateTables(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		tables := []interface{}{
			(*models.APIKey)(nil),
			(*models.Event)(nil),
			(*models.Project)(nil),
		}

		for _, table := range tables {
			if _, err := tx.NewCreateTable().
				Model(table).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table: %w", err)
			}
		}

		return CreateIndexes(ctx, tx)
	})
}

func CreateIndexes(ctx context.Context, db bun.IDB) error {
	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*models.Project)(nil), "projects_owner_created_idx", []string{"owner_id", "created_at"}},
		{(*models.Project)(nil), "projects_status_created_idx", []string{"status", "created_at"}},
		{(*models.Event)(nil), "events_project_idx", []string{"project_id", "created_at"}},
	}

	for _, index := range indexes {
		if _, err := db.NewCreateIndex().
			Model(index.model).
			Index(index.name).
			Column(index.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", index.name, err)
		}
	}

	return nil
}

// "file:./data/house3d.db?cache=shared" -> makes sure ./data exists
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return nil
	}

	return os.MkdirAll(filepath.Dir(path), os.ModePerm)
}
