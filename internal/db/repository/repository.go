package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cozy-creator/house3d/internal/types"
	"github.com/google/uuid"
)

type Repository[T any] interface {
	Create(ctx context.Context, arg *T) (*T, error)
	GetByID(ctx context.Context, id string) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// parseID turns malformed ids into ErrNotFound so callers cannot tell a bad id
// from a missing row.
func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, types.ErrNotFound
	}

	return parsed, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}

	return err
}
