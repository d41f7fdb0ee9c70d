package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cozy-creator/house3d/internal/db/dbtest"
	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/types"
	"github.com/google/uuid"
)

func newTestProject(ownerID, name string) *models.Project {
	return models.NewProject(ownerID, name, []models.ProjectInput{
		{OriginalName: "a.png", StoredPath: "/tmp/a.png"},
	})
}

func TestProjectRepository_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	project, err := repo.Insert(ctx, newTestProject("alice", "Kitchen"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if project.Status != models.ProjectStatusProcessing {
		t.Fatalf("expected processing, got %s", project.Status)
	}
	if project.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}

	got, err := repo.Get(ctx, project.ID.String(), "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Kitchen" || len(got.Inputs) != 1 || got.Inputs[0].StoredPath != "/tmp/a.png" {
		t.Fatalf("unexpected project: %+v", got)
	}
	if got.Inputs[0].UploadedAt.IsZero() {
		t.Fatal("expected uploaded_at to be stamped")
	}
	if got.ModelPath != "" {
		t.Fatalf("expected empty model path, got %q", got.ModelPath)
	}
}

func TestProjectRepository_InsertForcesProcessing(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	project := newTestProject("alice", "Kitchen")
	project.Status = models.ProjectStatusCompleted
	project.ModelPath = "/out/early.glb"

	inserted, err := repo.Insert(ctx, project)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if inserted.Status != models.ProjectStatusProcessing || inserted.ModelPath != "" {
		t.Fatalf("expected a fresh processing project, got %+v", inserted)
	}
}

func TestProjectRepository_InsertValidation(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	tests := []struct {
		name    string
		project *models.Project
		field   string
	}{
		{
			name:    "no inputs",
			project: models.NewProject("alice", "Empty", nil),
			field:   "inputs",
		},
		{
			name:    "name too long",
			project: newTestProject("alice", "This project name is definitely longer than fifty characters"),
			field:   "name",
		},
		{
			name: "input without path",
			project: models.NewProject("alice", "Pathless", []models.ProjectInput{
				{OriginalName: "a.png"},
			}),
			field: "inputs[0].stored_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Insert(ctx, tt.project)
			var verr *types.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, verr.Field)
			}
		})
	}

	projects, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected nothing persisted, got %d projects", len(projects))
	}
}

func TestProjectRepository_GetHidesOtherOwners(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	project, err := repo.Insert(ctx, newTestProject("alice", "Kitchen"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	for _, id := range []string{project.ID.String(), uuid.NewString(), "not-a-uuid"} {
		_, err := repo.Get(ctx, id, "mallory")
		if !errors.Is(err, types.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for %s, got %v", id, err)
		}
	}

	projects, err := repo.List(ctx, "mallory")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("expected no projects for another owner, got %d", len(projects))
	}
}

func TestProjectRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		project := newTestProject("alice", name)
		project.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.Insert(ctx, project); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	projects, err := repo.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(projects))
	}

	want := []string{"third", "second", "first"}
	for i, project := range projects {
		if project.Name != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], project.Name)
		}
	}
}

func TestProjectRepository_ListEmpty(t *testing.T) {
	repo := NewProjectRepository(dbtest.NewDB(t))

	projects, err := repo.List(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if projects == nil || len(projects) != 0 {
		t.Fatalf("expected an empty slice, got %#v", projects)
	}
}

func TestProjectRepository_UpdateTerminalOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	project, err := repo.Insert(ctx, newTestProject("alice", "Kitchen"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	id := project.ID.String()

	applied, err := repo.UpdateTerminal(ctx, id, models.ProjectStatusCompleted, "/out/model.glb", "")
	if err != nil || !applied {
		t.Fatalf("expected first update to apply, got applied=%v err=%v", applied, err)
	}

	applied, err = repo.UpdateTerminal(ctx, id, models.ProjectStatusFailed, "", "late failure")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Fatal("expected second terminal update to be a no-op")
	}

	got, err := repo.Get(ctx, id, "alice")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != models.ProjectStatusCompleted || got.ModelPath != "/out/model.glb" || got.ErrorMessage != "" {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Fatalf("expected updated_at >= created_at, got %s < %s", got.UpdatedAt, got.CreatedAt)
	}
}

func TestProjectRepository_UpdateTerminalRejectsProcessing(t *testing.T) {
	repo := NewProjectRepository(dbtest.NewDB(t))

	_, err := repo.UpdateTerminal(context.Background(), uuid.NewString(), models.ProjectStatusProcessing, "", "")
	if err == nil {
		t.Fatal("expected an error for a non-terminal status")
	}
}

func TestProjectRepository_ConcurrentTerminalUpdates(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)
	repo := NewProjectRepository(db)

	for round := 0; round < 20; round++ {
		project, err := repo.Insert(ctx, newTestProject("alice", "Race"))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		id := project.ID.String()

		var wg sync.WaitGroup
		results := make([]bool, 2)
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			results[0], errs[0] = repo.UpdateTerminal(ctx, id, models.ProjectStatusCompleted, "/out/model.glb", "")
		}()
		go func() {
			defer wg.Done()
			results[1], errs[1] = repo.UpdateTerminal(ctx, id, models.ProjectStatusFailed, "", "boom")
		}()
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if results[0] == results[1] {
			t.Fatalf("expected exactly one winner, got %v", results)
		}

		got, err := repo.Get(ctx, id, "alice")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if results[0] && got.Status != models.ProjectStatusCompleted {
			t.Fatalf("completion won but status is %s", got.Status)
		}
		if results[1] && got.Status != models.ProjectStatusFailed {
			t.Fatalf("failure won but status is %s", got.Status)
		}

		events, err := NewEventRepository(db).ListByProjectID(ctx, id)
		if err != nil {
			t.Fatalf("list events failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected created + one terminal event, got %d", len(events))
		}
	}
}

func TestProjectRepository_DeleteThenUpdate(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB(t)
	repo := NewProjectRepository(db)

	project, err := repo.Insert(ctx, newTestProject("alice", "Kitchen"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	id := project.ID.String()

	deleted, err := repo.Delete(ctx, id, "mallory")
	if err != nil || deleted {
		t.Fatalf("expected other owner's delete to match nothing, got deleted=%v err=%v", deleted, err)
	}

	deleted, err = repo.Delete(ctx, id, "alice")
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got deleted=%v err=%v", deleted, err)
	}

	applied, err := repo.UpdateTerminal(ctx, id, models.ProjectStatusCompleted, "/out/model.glb", "")
	if err != nil {
		t.Fatalf("late completion must not error: %v", err)
	}
	if applied {
		t.Fatal("late completion must not resurrect a deleted project")
	}

	if _, err := repo.Get(ctx, id, "alice"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	events, err := NewEventRepository(db).ListByProjectID(ctx, id)
	if err != nil {
		t.Fatalf("list events failed: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected events to be deleted with the project, got %d", len(events))
	}

	deleted, err = repo.Delete(ctx, id, "alice")
	if err != nil || deleted {
		t.Fatalf("expected second delete to be a no-op, got deleted=%v err=%v", deleted, err)
	}
}

func TestProjectRepository_ListStale(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(dbtest.NewDB(t))

	now := time.Now().UTC()

	old := newTestProject("alice", "old")
	old.CreatedAt = now.Add(-2 * time.Hour)
	if _, err := repo.Insert(ctx, old); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	oldDone := newTestProject("alice", "old but done")
	oldDone.CreatedAt = now.Add(-3 * time.Hour)
	if _, err := repo.Insert(ctx, oldDone); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := repo.UpdateTerminal(ctx, oldDone.ID.String(), models.ProjectStatusCompleted, "/out/a.glb", ""); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if _, err := repo.Insert(ctx, newTestProject("alice", "fresh")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	stale, err := repo.ListStale(ctx, now.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("list stale failed: %v", err)
	}
	if len(stale) != 1 || stale[0].ID != old.ID {
		t.Fatalf("expected only the old processing project, got %+v", stale)
	}

	status, err := repo.GetStatusByID(ctx, old.ID.String())
	if err != nil || status != models.ProjectStatusProcessing {
		t.Fatalf("expected processing status, got %s (%v)", status, err)
	}
}
