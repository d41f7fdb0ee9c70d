package generation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/db/repository"
	"github.com/cozy-creator/house3d/internal/mq"
	"github.com/cozy-creator/house3d/internal/types"
	"github.com/gammazero/workerpool"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 10 * time.Minute
	DefaultWorkers = 4

	outcomeWriteTimeout = 30 * time.Second
)

// ArtifactPublisher moves a generated model from local disk to its final
// location and returns that location.
type ArtifactPublisher interface {
	PublishFile(ctx context.Context, localPath string) (string, error)
}

// Processor consumes generation requests and records one terminal outcome
// per project. Requests are acked before generation starts, so a crash
// mid-generation leaves the project for the Reconciler rather than retrying.
type Processor struct {
	queue     mq.MQ
	topic     string
	repo      repository.IProjectRepository
	generator Generator
	publisher ArtifactPublisher
	timeout   time.Duration
	workers   int
	wp        *workerpool.WorkerPool
	logger    *zap.Logger

	mu      sync.Mutex
	stopped bool
}

type ProcessorOption func(*Processor)

func WithTimeout(timeout time.Duration) ProcessorOption {
	return func(p *Processor) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

func WithWorkers(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workers = workers
		}
	}
}

func WithPublisher(publisher ArtifactPublisher) ProcessorOption {
	return func(p *Processor) {
		p.publisher = publisher
	}
}

func WithLogger(logger *zap.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProcessor(queue mq.MQ, topic string, repo repository.IProjectRepository, generator Generator, opts ...ProcessorOption) *Processor {
	p := &Processor{
		queue:     queue,
		topic:     topic,
		repo:      repo,
		generator: generator,
		timeout:   DefaultTimeout,
		workers:   DefaultWorkers,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wp = workerpool.New(p.workers)
	return p
}

// Run receives requests until ctx is cancelled or the queue is closed.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("generation processor started",
		zap.String("topic", p.topic),
		zap.Int("workers", p.workers),
		zap.Duration("timeout", p.timeout),
	)

	for {
		message, err := p.queue.Receive(ctx, p.topic)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, mq.ErrQueueClosed) || errors.Is(err, mq.ErrTopicClosed) {
				return nil
			}
			return fmt.Errorf("failed to receive generation request: %w", err)
		}

		if err := p.queue.Ack(p.topic, message); err != nil {
			p.logger.Warn("failed to ack generation request", zap.Error(err))
		}

		data, err := p.queue.GetMessageData(message)
		if err != nil {
			p.logger.Error("failed to read generation request", zap.Error(err))
			continue
		}

		request, err := DecodeRequest(data)
		if err != nil {
			p.logger.Error("failed to decode generation request", zap.Error(err))
			continue
		}

		if !p.submit(ctx, request) {
			p.logger.Warn("processor stopped, dropping generation request", zap.String("project_id", request.ProjectID))
			return nil
		}
	}
}

func (p *Processor) submit(ctx context.Context, request *Request) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}

	p.wp.Submit(func() {
		p.process(ctx, request)
	})
	return true
}

// Stop waits for in-flight generations to record their outcome. Requests
// received afterwards are dropped and left to the Reconciler.
func (p *Processor) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.wp.StopWait()
}

func (p *Processor) process(ctx context.Context, request *Request) {
	logger := p.logger.With(zap.String("project_id", request.ProjectID))

	status, err := p.repo.GetStatusByID(context.WithoutCancel(ctx), request.ProjectID)
	switch {
	case errors.Is(err, types.ErrNotFound):
		logger.Info("project no longer exists, skipping generation")
		return
	case err != nil:
		logger.Warn("failed to check project status, generating anyway", zap.Error(err))
	case status.IsTerminal():
		logger.Info("project already finished, skipping generation", zap.String("status", string(status)))
		return
	}

	started := time.Now()
	modelPath, genErr := p.generate(ctx, request)
	if genErr == nil && p.publisher != nil {
		published, err := p.publisher.PublishFile(ctx, modelPath)
		if err != nil {
			genErr = fmt.Errorf("%w: failed to publish artifact: %w", types.ErrGeneration, err)
		} else {
			modelPath = published
		}
	}

	// The outcome is written even when shutdown has begun.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeWriteTimeout)
	defer cancel()

	var applied bool
	if genErr != nil {
		logger.Warn("generation failed", zap.Error(genErr), zap.Duration("elapsed", time.Since(started)))
		applied, err = p.repo.UpdateTerminal(writeCtx, request.ProjectID, models.ProjectStatusFailed, "", genErr.Error())
	} else {
		logger.Info("generation completed", zap.String("model_path", modelPath), zap.Duration("elapsed", time.Since(started)))
		applied, err = p.repo.UpdateTerminal(writeCtx, request.ProjectID, models.ProjectStatusCompleted, modelPath, "")
	}

	if err != nil {
		logger.Error("failed to record generation outcome", zap.Error(err))
		return
	}
	if !applied {
		logger.Info("generation outcome dropped, project was deleted or already finished")
	}
}

func (p *Processor) generate(ctx context.Context, request *Request) (modelPath string, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			modelPath = ""
			err = fmt.Errorf("%w: panic: %v", types.ErrGeneration, r)
		}
	}()

	modelPath, err = p.generator.Generate(ctx, request.ProjectID, request.InputPaths)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", fmt.Errorf("%w: timed out after %s", types.ErrGeneration, p.timeout)
		case errors.Is(ctx.Err(), context.Canceled):
			return "", fmt.Errorf("%w: interrupted by shutdown", types.ErrGeneration)
		}
		return "", err
	}
	if modelPath == "" {
		return "", fmt.Errorf("%w: generator returned no model path", types.ErrGeneration)
	}

	return modelPath, nil
}
