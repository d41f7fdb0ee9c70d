package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/db/repository"
	"github.com/cozy-creator/house3d/internal/types"
	"go.uber.org/zap"
)

// Dispatcher hands a stored project to generation without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, projectID string, inputPaths []string) error
}

type InputParams struct {
	OriginalName string `json:"original_name" msgpack:"original_name" validate:"max=255"`
	StoredPath   string `json:"stored_path" msgpack:"stored_path" validate:"required"`
}

type CreateParams struct {
	Name   string        `json:"name" msgpack:"name" validate:"max=50"`
	Inputs []InputParams `json:"inputs" msgpack:"inputs" validate:"min=1,max=10,dive"`
}

type Service struct {
	repo       repository.IProjectRepository
	events     repository.IEventRepository
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(repo repository.IProjectRepository, events repository.IEventRepository, dispatcher Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:       repo,
		events:     events,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// DefaultName is used when a project is created without a name.
func DefaultName(at time.Time) string {
	return fmt.Sprintf("Project %d", at.UnixMilli())
}

// CreateProject stores a new processing project and dispatches its
// generation. When dispatch fails the stored project is still returned,
// together with an error wrapping types.ErrDispatch.
func (s *Service) CreateProject(ctx context.Context, ownerID string, params CreateParams) (*models.Project, error) {
	params.Name = strings.TrimSpace(params.Name)
	if err := types.Validate(&params); err != nil {
		return nil, err
	}

	name := params.Name
	if name == "" {
		name = DefaultName(s.now())
	}

	inputs := make([]models.ProjectInput, len(params.Inputs))
	for i, input := range params.Inputs {
		inputs[i] = models.ProjectInput{
			OriginalName: input.OriginalName,
			StoredPath:   input.StoredPath,
		}
	}

	project, err := s.repo.Insert(ctx, models.NewProject(ownerID, name, inputs))
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("project_id", project.ID.String()), zap.String("owner_id", ownerID))
	logger.Info("project created", zap.Int("inputs", len(inputs)))

	if err := s.dispatcher.Dispatch(ctx, project.ID.String(), project.InputPaths()); err != nil {
		logger.Error("failed to dispatch generation", zap.Error(err))
		s.recordDispatchFailure(ctx, project, err)

		if !errors.Is(err, types.ErrDispatch) {
			err = fmt.Errorf("%w: %w", types.ErrDispatch, err)
		}
		return project, err
	}

	return project, nil
}

func (s *Service) recordDispatchFailure(ctx context.Context, project *models.Project, dispatchErr error) {
	event, err := models.NewEvent(project.ID, models.EventTypeDispatchFailed, models.EventData{
		Status: project.Status,
		Error:  dispatchErr.Error(),
	})
	if err == nil {
		_, err = s.events.Create(context.WithoutCancel(ctx), event)
	}
	if err != nil {
		s.logger.Warn("failed to record dispatch failure", zap.String("project_id", project.ID.String()), zap.Error(err))
	}
}

func (s *Service) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.repo.List(ctx, ownerID)
}

func (s *Service) GetProject(ctx context.Context, ownerID, id string) (*models.Project, error) {
	return s.repo.Get(ctx, id, ownerID)
}

// DeleteProject removes the project. A generation still running for it keeps
// running; its outcome is dropped.
func (s *Service) DeleteProject(ctx context.Context, ownerID, id string) error {
	deleted, err := s.repo.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if !deleted {
		return types.ErrNotFound
	}

	s.logger.Info("project deleted", zap.String("project_id", id), zap.String("owner_id", ownerID))
	return nil
}

func (s *Service) ListProjectEvents(ctx context.Context, ownerID, id string) ([]models.Event, error) {
	if _, err := s.repo.Get(ctx, id, ownerID); err != nil {
		return nil, err
	}

	return s.events.ListByProjectID(ctx, id)
}
