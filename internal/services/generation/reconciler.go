package generation

import (
	"context"
	"time"

	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/db/repository"
	"go.uber.org/zap"
)

const (
	TimedOutMessage = "generation timed out"

	DefaultReconcileInterval = time.Minute
	DefaultMaxAge            = 30 * time.Minute

	reconcileBatchSize = 100
)

// Reconciler fails projects that have been processing for longer than
// maxAge: requests lost with the queue, or workers that died mid-generation.
type Reconciler struct {
	repo     repository.IProjectRepository
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewReconciler(repo repository.IProjectRepository, interval, maxAge time.Duration, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &Reconciler{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
		now:      time.Now,
	}
}

// Run reconciles once immediately, then on every tick until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	if _, err := r.ReconcileOnce(ctx); err != nil {
		r.logger.Error("failed to reconcile stale projects", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				r.logger.Error("failed to reconcile stale projects", zap.Error(err))
			}
		}
	}
}

// ReconcileOnce fails every stale project and returns how many it changed.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.maxAge)
	failed := 0

	for {
		stale, err := r.repo.ListStale(ctx, cutoff, reconcileBatchSize)
		if err != nil {
			return failed, err
		}

		for _, project := range stale {
			applied, err := r.repo.UpdateTerminal(ctx, project.ID.String(), models.ProjectStatusFailed, "", TimedOutMessage)
			if err != nil {
				return failed, err
			}
			if applied {
				failed++
				r.logger.Warn("failed stale project",
					zap.String("project_id", project.ID.String()),
					zap.Time("created_at", project.CreatedAt),
				)
			}
		}

		if len(stale) < reconcileBatchSize {
			return failed, nil
		}
	}
}
