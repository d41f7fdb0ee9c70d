package migrations

import (
	"context"

	"github.com/cozy-creator/house3d/internal/db"
	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, conn *bun.DB) error {
		return db.CreateIndexes(ctx, conn)
	}, func(ctx context.Context, conn *bun.DB) error {
		for _, name := range []string{"projects_owner_created_idx", "projects_status_created_idx", "events_project_idx"} {
			if _, err := conn.NewDropIndex().Model((*models.Project)(nil)).Index(name).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
