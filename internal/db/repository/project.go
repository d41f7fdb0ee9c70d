package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// IProjectRepository is the durable store of projects and their lifecycle.
// Every mutation is atomic per record; terminal transitions are guarded by a
// compare-and-set on status.
type IProjectRepository interface {
	WithTx(tx *bun.Tx) IProjectRepository
	Insert(ctx context.Context, project *models.Project) (*models.Project, error)
	Get(ctx context.Context, id, ownerID string) (*models.Project, error)
	GetStatusByID(ctx context.Context, id string) (models.ProjectStatus, error)
	List(ctx context.Context, ownerID string) ([]models.Project, error)
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]models.Project, error)
	UpdateTerminal(ctx context.Context, id string, status models.ProjectStatus, modelPath, errorMessage string) (bool, error)
	Delete(ctx context.Context, id, ownerID string) (bool, error)
}

type ProjectRepository struct {
	db  bun.IDB
	now func() time.Time
}

func NewProjectRepository(db bun.IDB) IProjectRepository {
	return &ProjectRepository{db: db, now: utcNow}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func (r *ProjectRepository) WithTx(tx *bun.Tx) IProjectRepository {
	return &ProjectRepository{db: tx, now: r.now}
}

func (r *ProjectRepository) Insert(ctx context.Context, project *models.Project) (*models.Project, error) {
	if project == nil {
		return nil, fmt.Errorf("project model is nil")
	}

	if err := project.Validate(); err != nil {
		return nil, err
	}

	now := r.now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.CreatedAt = project.CreatedAt.UTC()
	project.UpdatedAt = project.CreatedAt
	project.Status = models.ProjectStatusProcessing
	project.ModelPath = ""
	project.ErrorMessage = ""
	if project.ID == uuid.Nil {
		project.ID = uuid.Must(uuid.NewRandom())
	}
	for i := range project.Inputs {
		if project.Inputs[i].UploadedAt.IsZero() {
			project.Inputs[i].UploadedAt = project.CreatedAt
		}
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(project).Exec(ctx); err != nil {
			return err
		}

		event, err := models.NewEvent(project.ID, models.EventTypeCreated, models.EventData{
			Status:     project.Status,
			InputCount: len(project.Inputs),
		})
		if err != nil {
			return err
		}

		_, err = NewEventRepository(tx).Create(ctx, event)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}

	return project, nil
}

func (r *ProjectRepository) Get(ctx context.Context, id, ownerID string) (*models.Project, error) {
	projectID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := r.db.NewSelect().
		Model(&project).
		Where("p.id = ?", projectID).
		Where("p.owner_id = ?", ownerID).
		Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	return &project, nil
}

func (r *ProjectRepository) GetStatusByID(ctx context.Context, id string) (models.ProjectStatus, error) {
	projectID, err := parseID(id)
	if err != nil {
		return "", err
	}

	var status models.ProjectStatus
	if err := r.db.NewSelect().
		Model((*models.Project)(nil)).
		Column("status").
		Where("id = ?", projectID).
		Scan(ctx, &status); err != nil {
		return "", notFound(err)
	}

	return status, nil
}

func (r *ProjectRepository) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	if err := r.db.NewSelect().
		Model(&projects).
		Where("p.owner_id = ?", ownerID).
		Order("p.created_at DESC", "p.id DESC").
		Scan(ctx); err != nil {
		return nil, err
	}

	return projects, nil
}

// ListStale returns projects still processing that were created before olderThan.
func (r *ProjectRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	query := r.db.NewSelect().
		Model(&projects).
		Where("p.status = ?", models.ProjectStatusProcessing).
		Where("p.created_at < ?", olderThan.UTC()).
		Order("p.created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	return projects, nil
}

// UpdateTerminal moves a processing project to completed or failed. It reports
// false without error when the project is already terminal or no longer exists.
func (r *ProjectRepository) UpdateTerminal(ctx context.Context, id string, status models.ProjectStatus, modelPath, errorMessage string) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("invalid terminal status: %s", status)
	}

	projectID, err := parseID(id)
	if err != nil {
		return false, nil
	}

	eventType := models.EventTypeCompleted
	if status == models.ProjectStatusFailed {
		eventType = models.EventTypeFailed
		modelPath = ""
	} else {
		errorMessage = ""
	}

	var applied bool
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(&models.Project{}).
			Set("status = ?", status).
			Set("model_path = ?", modelPath).
			Set("error_message = ?", errorMessage).
			Set("updated_at = ?", r.now()).
			Where("id = ?", projectID).
			Where("status = ?", models.ProjectStatusProcessing).
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		applied = true

		event, err := models.NewEvent(projectID, eventType, models.EventData{
			Status:    status,
			ModelPath: modelPath,
			Error:     errorMessage,
		})
		if err != nil {
			return err
		}

		_, err = NewEventRepository(tx).Create(ctx, event)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to update project %s: %w", id, err)
	}

	return applied, nil
}

// Delete removes the project and its events. The project row goes first so a
// concurrent terminal update either commits before it or matches nothing.
func (r *ProjectRepository) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	projectID, err := parseID(id)
	if err != nil {
		return false, nil
	}

	var deleted bool
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model(&models.Project{}).
			Where("id = ?", projectID).
			Where("owner_id = ?", ownerID).
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}
		deleted = true

		return NewEventRepository(tx).DeleteByProjectID(ctx, projectID.String())
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete project %s: %w", id, err)
	}

	return deleted, nil
}
