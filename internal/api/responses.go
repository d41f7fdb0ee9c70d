package api

import (
	"time"

	"github.com/cozy-creator/house3d/internal/db/models"
)

type InputResponse struct {
	OriginalName string    `json:"original_name"`
	StoredPath   string    `json:"stored_path"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type ProjectResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       string          `json:"status"`
	Inputs       []InputResponse `json:"inputs"`
	ModelPath    string          `json:"model_path,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type EventResponse struct {
	Type      string           `json:"type"`
	Data      models.EventData `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
}

func toProjectResponse(project *models.Project) ProjectResponse {
	inputs := make([]InputResponse, len(project.Inputs))
	for i, input := range project.Inputs {
		inputs[i] = InputResponse{
			OriginalName: input.OriginalName,
			StoredPath:   input.StoredPath,
			UploadedAt:   input.UploadedAt,
		}
	}

	return ProjectResponse{
		ID:           project.ID.String(),
		Name:         project.Name,
		Status:       string(project.Status),
		Inputs:       inputs,
		ModelPath:    project.ModelPath,
		ErrorMessage: project.ErrorMessage,
		CreatedAt:    project.CreatedAt,
		UpdatedAt:    project.UpdatedAt,
	}
}

func toProjectResponses(projects []models.Project) []ProjectResponse {
	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = toProjectResponse(&projects[i])
	}

	return responses
}

func toEventResponses(events []models.Event) ([]EventResponse, error) {
	responses := make([]EventResponse, len(events))
	for i, event := range events {
		data, err := event.DecodeData()
		if err != nil {
			return nil, err
		}

		responses[i] = EventResponse{
			Type:      string(event.Type),
			Data:      data,
			CreatedAt: event.CreatedAt,
		}
	}

	return responses, nil
}
