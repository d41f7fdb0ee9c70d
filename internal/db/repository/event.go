package repository

import (
	"context"
	"fmt"

	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/uptrace/bun"
)

type IEventRepository interface {
	Repository[models.Event]
	WithTx(tx *bun.Tx) IEventRepository
	ListByProjectID(ctx context.Context, projectID string) ([]models.Event, error)
	DeleteByProjectID(ctx context.Context, projectID string) error
}

type EventRepository struct {
	db bun.IDB
}

func NewEventRepository(db bun.IDB) IEventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("event model is nil")
	}

	if _, err := r.db.NewInsert().Model(event).Exec(ctx); err != nil {
		return nil, err
	}

	return event, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	eventID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var event models.Event
	if err := r.db.NewSelect().Model(&event).Where("e.id = ?", eventID).Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	return &event, nil
}

// ListByProjectID returns a project's events oldest first.
func (r *EventRepository) ListByProjectID(ctx context.Context, projectID string) ([]models.Event, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0)
	if err := r.db.NewSelect().
		Model(&events).
		Where("e.project_id = ?", id).
		Order("e.created_at ASC").
		Scan(ctx); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *EventRepository) DeleteByID(ctx context.Context, id string) error {
	eventID, err := parseID(id)
	if err != nil {
		return err
	}

	_, err = r.db.NewDelete().Model(&models.Event{}).Where("id = ?", eventID).Exec(ctx)
	return err
}

func (r *EventRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	id, err := parseID(projectID)
	if err != nil {
		return err
	}

	_, err = r.db.NewDelete().Model(&models.Event{}).Where("project_id = ?", id).Exec(ctx)
	return err
}

func (r *EventRepository) WithTx(tx *bun.Tx) IEventRepository {
	return &EventRepository{db: tx}
}
