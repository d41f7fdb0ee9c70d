package migrations

import (
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// DiscoverCaller lets `db migration create-go` place new files next to this one.
func InitMigrations() error {
	return Migrations.DiscoverCaller()
}
