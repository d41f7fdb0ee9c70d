package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/cozy-creator/house3d/internal/db/dbtest"
	"github.com/cozy-creator/house3d/internal/db/models"
)

func TestAPIKeyRepository_CreateLookupRevoke(t *testing.T) {
	ctx := context.Background()
	repo := NewAPIKeyRepository(dbtest.NewDB(t))

	key := models.NewAPIKey("alice", "hash-1", "ab****yz")
	if _, err := repo.Create(ctx, key); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := repo.GetAPIKeyWithHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.OwnerID != "alice" || got.IsRevoked {
		t.Fatalf("unexpected key: %+v", got)
	}

	if _, err := repo.GetAPIKeyWithHash(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}

	revoked, err := repo.RevokeAPIKeyWithHash(ctx, "hash-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoke to succeed, got %v (%v)", revoked, err)
	}

	got, err = repo.GetAPIKeyWithHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !got.IsRevoked {
		t.Fatal("expected key to be revoked")
	}

	keys, err := repo.ListAPIKeys(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
}
