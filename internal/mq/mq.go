package mq

import (
	"context"
	"errors"

	"github.com/cozy-creator/house3d/internal/config"
	"go.uber.org/zap"
)

var (
	ErrTopicNotExists = errors.New("topic does not exist")
	ErrQueueFull      = errors.New("queue is full")
	ErrQueueClosed    = errors.New("queue closed")
	ErrTopicClosed    = errors.New("topic closed")
	ErrInvalidMessage = errors.New("invalid message type")
)

const (
	MQTypeInMemory = "inmemory"
	MQTypePulsar   = "pulsar"
)

const defaultInMemorySize = 100

// MQ carries opaque payloads between the API process and the generation
// workers. Messages returned by Receive must be passed back to Ack.
type MQ interface {
	Publish(ctx context.Context, topic string, message []byte) error
	Receive(ctx context.Context, topic string) (interface{}, error)
	GetMessageData(message interface{}) ([]byte, error)
	Ack(topic string, message interface{}) error
	CloseTopic(topic string) error
	Close() error
}

// NewMQ returns a Pulsar-backed queue when a broker URL is configured and an
// in-memory queue otherwise.
func NewMQ(cfg *config.Config, logger *zap.Logger) (MQ, error) {
	if cfg != nil && cfg.Pulsar != nil && cfg.Pulsar.URL != "" {
		return NewPulsarMQ(cfg.Pulsar, logger)
	}

	size := defaultInMemorySize
	if cfg != nil && cfg.MQ != nil && cfg.MQ.InMemorySize > 0 {
		size = cfg.MQ.InMemorySize
	}

	return NewInMemoryMQ(size)
}

// Type reports which implementation backs queue.
func Type(queue MQ) string {
	if _, ok := queue.(*PulsarMQ); ok {
		return MQTypePulsar
	}

	return MQTypeInMemory
}
