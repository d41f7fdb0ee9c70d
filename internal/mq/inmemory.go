package mq

import (
	"context"
	"sync"
)

type inMemoryTopic struct {
	messages chan []byte
	done     chan struct{}
}

type InMemoryMQ struct {
	maxSize   int
	mu        sync.Mutex
	topics    map[string]*inMemoryTopic
	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewInMemoryMQ(maxSize int) (*InMemoryMQ, error) {
	if maxSize <= 0 {
		maxSize = defaultInMemorySize
	}

	return &InMemoryMQ{
		maxSize: maxSize,
		topics:  make(map[string]*inMemoryTopic),
		closeCh: make(chan struct{}),
	}, nil
}

func (q *InMemoryMQ) topic(name string) *inMemoryTopic {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.topics[name]
	if !ok {
		t = &inMemoryTopic{
			messages: make(chan []byte, q.maxSize),
			done:     make(chan struct{}),
		}
		q.topics[name] = t
	}

	return t
}

// Publish never blocks: a full topic returns ErrQueueFull.
func (q *InMemoryMQ) Publish(ctx context.Context, topic string, message []byte) error {
	t := q.topic(topic)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeCh:
		return ErrQueueClosed
	case <-t.done:
		return ErrTopicClosed
	default:
	}

	select {
	case t.messages <- message:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *InMemoryMQ) Receive(ctx context.Context, topic string) (interface{}, error) {
	t := q.topic(topic)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.closeCh:
		return nil, ErrQueueClosed
	case <-t.done:
		return nil, ErrTopicClosed
	case data := <-t.messages:
		return data, nil
	}
}

func (q *InMemoryMQ) GetMessageData(message interface{}) ([]byte, error) {
	data, ok := message.([]byte)
	if !ok {
		return nil, ErrInvalidMessage
	}

	return data, nil
}

// Ack is a no-op; in-memory messages are gone once received.
func (q *InMemoryMQ) Ack(topic string, message interface{}) error {
	return nil
}

func (q *InMemoryMQ) CloseTopic(topic string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.topics[topic]
	if !ok {
		return ErrTopicNotExists
	}

	close(t.done)
	delete(q.topics, topic)
	return nil
}

func (q *InMemoryMQ) Close() error {
	q.closeOnce.Do(func() {
		close(q.closeCh)
	})

	return nil
}
