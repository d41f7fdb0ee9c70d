package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"
)

type EventType string

const (
	EventTypeCreated        EventType = "created"
	EventTypeDispatchFailed EventType = "dispatch_failed"
	EventTypeCompleted      EventType = "completed"
	EventTypeFailed         EventType = "failed"
)

type EventData struct {
	Status     ProjectStatus `msgpack:"status,omitempty" json:"status,omitempty"`
	ModelPath  string        `msgpack:"model_path,omitempty" json:"model_path,omitempty"`
	Error      string        `msgpack:"error,omitempty" json:"error,omitempty"`
	InputCount int           `msgpack:"input_count,omitempty" json:"input_count,omitempty"`
}

type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID        uuid.UUID `bun:",type:uuid,pk"`
	Type      EventType `bun:",notnull"`
	Data      []byte    `bun:",notnull"`
	ProjectID uuid.UUID `bun:",type:uuid,notnull"`
	CreatedAt time.Time `bun:",notnull"`
}

func NewEvent(projectID uuid.UUID, eventType EventType, data EventData) (*Event, error) {
	encodedData, err := msgpack.Marshal(&data)
	if err != nil {
		return nil, err
	}

	return &Event{
		Data:      encodedData,
		ProjectID: projectID,
		Type:      eventType,
		ID:        uuid.Must(uuid.NewRandom()),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (e *Event) DecodeData() (EventData, error) {
	var data EventData
	if len(e.Data) == 0 {
		return data, nil
	}

	err := msgpack.Unmarshal(e.Data, &data)
	return data, err
}
