package mq

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/cozy-creator/house3d/internal/config"
	"go.uber.org/zap"
)

type PulsarMQ struct {
	client           pulsar.Client
	subscriptionName string
	logger           *zap.Logger

	mu        sync.Mutex
	producers map[string]pulsar.Producer
	consumers map[string]pulsar.Consumer
}

func NewPulsarMQ(cfg *config.PulsarConfig, logger *zap.Logger) (*PulsarMQ, error) {
	client, err := newPulsarClient(cfg)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &PulsarMQ{
		client:           client,
		subscriptionName: cfg.SubscriptionName,
		logger:           logger,
		producers:        make(map[string]pulsar.Producer),
		consumers:        make(map[string]pulsar.Consumer),
	}, nil
}

func (mq *PulsarMQ) Publish(ctx context.Context, topic string, message []byte) error {
	producer, err := mq.getProducer(topic)
	if err != nil {
		return err
	}

	_, err = producer.Send(ctx, &pulsar.ProducerMessage{Payload: message})
	return err
}

func (mq *PulsarMQ) Receive(ctx context.Context, topic string) (interface{}, error) {
	consumer, err := mq.getConsumer(topic)
	if err != nil {
		mq.logger.Error("failed to get consumer", zap.String("topic", topic), zap.Error(err))
		return nil, err
	}

	return consumer.Receive(ctx)
}

func (mq *PulsarMQ) GetMessageData(message interface{}) ([]byte, error) {
	msg, ok := message.(pulsar.Message)
	if !ok {
		return nil, ErrInvalidMessage
	}

	return msg.Payload(), nil
}

func (mq *PulsarMQ) Ack(topic string, message interface{}) error {
	msg, ok := message.(pulsar.Message)
	if !ok {
		return ErrInvalidMessage
	}

	consumer, err := mq.getConsumer(topic)
	if err != nil {
		return err
	}

	if err := consumer.Ack(msg); err != nil {
		mq.logger.Error("failed to ack message", zap.String("topic", topic), zap.Error(err))
		return err
	}

	return nil
}

func (mq *PulsarMQ) CloseTopic(topic string) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	producer, hasProducer := mq.producers[topic]
	consumer, hasConsumer := mq.consumers[topic]
	if !hasProducer && !hasConsumer {
		return ErrTopicNotExists
	}

	if hasProducer {
		producer.Close()
		delete(mq.producers, topic)
	}
	if hasConsumer {
		consumer.Close()
		delete(mq.consumers, topic)
	}

	return nil
}

func (mq *PulsarMQ) Close() error {
	mq.mu.Lock()
	for topic, producer := range mq.producers {
		producer.Close()
		delete(mq.producers, topic)
	}
	for topic, consumer := range mq.consumers {
		consumer.Close()
		delete(mq.consumers, topic)
	}
	mq.mu.Unlock()

	mq.client.Close()
	return nil
}

func (mq *PulsarMQ) getProducer(topic string) (pulsar.Producer, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if producer, ok := mq.producers[topic]; ok {
		return producer, nil
	}

	producer, err := mq.client.CreateProducer(pulsar.ProducerOptions{Topic: topic})
	if err != nil {
		return nil, err
	}

	mq.producers[topic] = producer
	return producer, nil
}

func (mq *PulsarMQ) getConsumer(topic string) (pulsar.Consumer, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if consumer, ok := mq.consumers[topic]; ok {
		return consumer, nil
	}

	subscription := mq.subscriptionName
	if subscription == "" {
		subscription = strings.ReplaceAll(topic, "/", "-")
	}

	// Shared lets several worker processes split one topic.
	consumer, err := mq.client.Subscribe(pulsar.ConsumerOptions{
		Topic:            topic,
		Type:             pulsar.Shared,
		SubscriptionName: subscription,
	})
	if err != nil {
		return nil, err
	}

	mq.consumers[topic] = consumer
	return consumer, nil
}

func newPulsarClient(cfg *config.PulsarConfig) (pulsar.Client, error) {
	return pulsar.NewClient(pulsar.ClientOptions{
		URL:               cfg.URL,
		OperationTimeout:  30 * time.Second,
		ConnectionTimeout: 30 * time.Second,
	})
}
