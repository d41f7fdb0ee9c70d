package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type APIKey struct {
	bun.BaseModel `bun:"table:api_keys"`

	ID        uuid.UUID `bun:",type:uuid,pk"`
	OwnerID   string    `bun:",notnull"`
	KeyHash   string    `bun:",notnull,unique"`
	KeyMask   string    `bun:",notnull"`
	IsRevoked bool      `bun:",notnull,default:false"`
	CreatedAt time.Time `bun:",notnull"`
	UpdatedAt time.Time `bun:",notnull"`
}

func NewAPIKey(ownerID, keyHash, keyMask string) *APIKey {
	now := time.Now().UTC()
	return &APIKey{
		OwnerID:   ownerID,
		KeyHash:   keyHash,
		KeyMask:   keyMask,
		ID:        uuid.Must(uuid.NewRandom()),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
