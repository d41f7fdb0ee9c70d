package models

import (
	"time"

	"github.com/cozy-creator/house3d/internal/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type ProjectStatus string

const (
	ProjectStatusProcessing ProjectStatus = "processing"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusFailed     ProjectStatus = "failed"
)

const (
	MaxNameLength = 50
	MaxInputs     = 10
)

func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectStatusCompleted || s == ProjectStatusFailed
}

type ProjectInput struct {
	OriginalName string    `json:"original_name" validate:"max=255"`
	StoredPath   string    `json:"stored_path" validate:"required"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID           uuid.UUID      `bun:",type:uuid,pk" json:"id"`
	OwnerID      string         `bun:",notnull" json:"owner_id" validate:"required"`
	Name         string         `bun:",notnull" json:"name" validate:"required,max=50"`
	Inputs       []ProjectInput `bun:",type:jsonb,notnull" json:"inputs" validate:"min=1,max=10,dive"`
	ModelPath    string         `bun:",notnull" json:"model_path"`
	ErrorMessage string         `bun:",notnull" json:"error_message"`
	Status       ProjectStatus  `bun:",notnull" json:"status"`
	CreatedAt    time.Time      `bun:",notnull" json:"created_at"`
	UpdatedAt    time.Time      `bun:",notnull" json:"updated_at"`
}

func NewProject(ownerID, name string, inputs []ProjectInput) *Project {
	return &Project{
		ID:      uuid.Must(uuid.NewRandom()),
		OwnerID: ownerID,
		Name:    name,
		Inputs:  inputs,
		Status:  ProjectStatusProcessing,
	}
}

func (p *Project) Validate() error {
	return types.Validate(p)
}

// InputPaths returns the stored paths in upload order.
func (p *Project) InputPaths() []string {
	paths := make([]string, len(p.Inputs))
	for i, input := range p.Inputs {
		paths[i] = input.StoredPath
	}

	return paths
}
