package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/cozy-creator/house3d/internal/mq"
	"github.com/cozy-creator/house3d/internal/types"
	"github.com/vmihailenco/msgpack/v5"
)

// Request is the message published for every project awaiting generation.
type Request struct {
	ProjectID  string    `msgpack:"project_id"`
	InputPaths []string  `msgpack:"input_paths"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

func (r *Request) Encode() ([]byte, error) {
	return msgpack.Marshal(r)
}

func DecodeRequest(data []byte) (*Request, error) {
	var request Request
	if err := msgpack.Unmarshal(data, &request); err != nil {
		return nil, err
	}
	if request.ProjectID == "" {
		return nil, fmt.Errorf("request has no project id")
	}

	return &request, nil
}

type Dispatcher struct {
	queue mq.MQ
	topic string
}

func NewDispatcher(queue mq.MQ, topic string) *Dispatcher {
	return &Dispatcher{queue: queue, topic: topic}
}

// Dispatch hands the project to the generation workers and returns without
// waiting for them.
func (d *Dispatcher) Dispatch(ctx context.Context, projectID string, inputPaths []string) error {
	request := Request{
		ProjectID:  projectID,
		InputPaths: inputPaths,
		CreatedAt:  time.Now().UTC(),
	}

	data, err := request.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrDispatch, err)
	}

	if err := d.queue.Publish(ctx, d.topic, data); err != nil {
		return fmt.Errorf("%w: %w", types.ErrDispatch, err)
	}

	return nil
}
