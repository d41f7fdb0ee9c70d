package generation

import (
	"context"
	"testing"
	"time"

	"github.com/cozy-creator/house3d/internal/db/dbtest"
	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/db/repository"
	"go.uber.org/zap/zaptest"
)

func TestReconciler_FailsStaleProjects(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProjectRepository(dbtest.NewDB(t))
	now := time.Now().UTC()

	insert := func(name string, createdAt time.Time) *models.Project {
		project := models.NewProject("alice", name, []models.ProjectInput{{StoredPath: "/uploads/a.png"}})
		project.CreatedAt = createdAt
		inserted, err := repo.Insert(ctx, project)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		return inserted
	}

	stale := insert("stale", now.Add(-2*time.Hour))
	fresh := insert("fresh", now.Add(-time.Minute))
	finished := insert("finished", now.Add(-3*time.Hour))
	if _, err := repo.UpdateTerminal(ctx, finished.ID.String(), models.ProjectStatusCompleted, "/models/f.glb", ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reconciler := NewReconciler(repo, time.Minute, 30*time.Minute, zaptest.NewLogger(t))

	count, err := reconciler.ReconcileOnce(ctx)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 project failed, got %d", count)
	}

	got, err := repo.Get(ctx, stale.ID.String(), "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != models.ProjectStatusFailed || got.ErrorMessage != TimedOutMessage {
		t.Fatalf("unexpected stale project state: %s %q", got.Status, got.ErrorMessage)
	}

	for _, project := range []*models.Project{fresh, finished} {
		got, err := repo.Get(ctx, project.ID.String(), "alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.ErrorMessage == TimedOutMessage {
			t.Fatalf("project %s should not have been touched", project.Name)
		}
	}

	count, err = reconciler.ReconcileOnce(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected a second pass to change nothing, got %d (%v)", count, err)
	}
}

func TestReconciler_RunStopsWithContext(t *testing.T) {
	repo := repository.NewProjectRepository(dbtest.NewDB(t))
	reconciler := NewReconciler(repo, 10*time.Millisecond, time.Hour, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- reconciler.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
