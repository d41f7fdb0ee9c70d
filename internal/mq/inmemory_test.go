package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cozy-creator/house3d/internal/config"
)

func TestInMemoryMQ_PublishReceive(t *testing.T) {
	q, _ := NewInMemoryMQ(2)
	ctx := context.Background()

	if err := q.Publish(ctx, "jobs", []byte("one")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := q.Publish(ctx, "jobs", []byte("two")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := q.Publish(ctx, "jobs", []byte("three")); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	for _, want := range []string{"one", "two"} {
		msg, err := q.Receive(ctx, "jobs")
		if err != nil {
			t.Fatalf("receive failed: %v", err)
		}
		data, err := q.GetMessageData(msg)
		if err != nil {
			t.Fatalf("get data failed: %v", err)
		}
		if string(data) != want {
			t.Fatalf("expected %s, got %s", want, data)
		}
		if err := q.Ack("jobs", msg); err != nil {
			t.Fatalf("ack failed: %v", err)
		}
	}
}

func TestInMemoryMQ_ReceiveHonorsContext(t *testing.T) {
	q, _ := NewInMemoryMQ(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := q.Receive(ctx, "jobs"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestInMemoryMQ_CloseUnblocksReceivers(t *testing.T) {
	q, _ := NewInMemoryMQ(1)

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Receive(context.Background(), "jobs")
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	if err := q.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// a second close must not panic
	_ = q.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrQueueClosed) {
			t.Fatalf("expected ErrQueueClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("receiver was not released")
	}

	if err := q.Publish(context.Background(), "jobs", []byte("late")); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestInMemoryMQ_CloseTopic(t *testing.T) {
	q, _ := NewInMemoryMQ(1)

	if err := q.CloseTopic("missing"); !errors.Is(err, ErrTopicNotExists) {
		t.Fatalf("expected ErrTopicNotExists, got %v", err)
	}

	if err := q.Publish(context.Background(), "jobs", []byte("x")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if err := q.CloseTopic("jobs"); err != nil {
		t.Fatalf("close topic failed: %v", err)
	}
}

func TestInMemoryMQ_GetMessageDataRejectsForeignMessages(t *testing.T) {
	q, _ := NewInMemoryMQ(1)
	if _, err := q.GetMessageData("not bytes"); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestNewMQ_DefaultsToInMemory(t *testing.T) {
	cfg := &config.Config{
		MQ:     &config.MQConfig{InMemorySize: 5},
		Pulsar: &config.PulsarConfig{SubscriptionName: "workers"},
	}

	queue, err := NewMQ(cfg, nil)
	if err != nil {
		t.Fatalf("new mq failed: %v", err)
	}
	if Type(queue) != MQTypeInMemory {
		t.Fatalf("expected in-memory queue, got %s", Type(queue))
	}
	if queue.(*InMemoryMQ).maxSize != 5 {
		t.Fatalf("expected size 5, got %d", queue.(*InMemoryMQ).maxSize)
	}
}
