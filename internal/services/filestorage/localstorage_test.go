package filestorage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cozy-creator/house3d/internal/config"
)

func newTestStorage(t *testing.T) *LocalFileStorage {
	t.Helper()

	dir := t.TempDir()
	storage, err := NewLocalFileStorage(&config.Config{
		AssetsDir: filepath.Join(dir, "assets"),
		TempDir:   filepath.Join(dir, "temp"),
	})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	return storage
}

func TestLocalFileStorage_UploadAndGet(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	path, err := storage.Upload(ctx, NewFileInfo("plan", ".png", []byte("png-bytes"), false))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if filepath.Dir(path) != storage.AssetsDir() {
		t.Fatalf("expected file under %s, got %s", storage.AssetsDir(), path)
	}

	file, err := storage.GetFile(ctx, "plan.png")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(file.Content) != "png-bytes" || file.Name != "plan" || file.Extension != ".png" {
		t.Fatalf("unexpected file: %+v", file)
	}

	if _, err := storage.GetFile(ctx, path); err != nil {
		t.Fatalf("get by absolute path failed: %v", err)
	}
}

func TestLocalFileStorage_TempFiles(t *testing.T) {
	storage := newTestStorage(t)

	path, err := storage.Upload(context.Background(), NewFileInfo("scratch", ".bin", []byte{1}, true))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if filepath.Dir(path) != storage.tempDir {
		t.Fatalf("expected temp file under %s, got %s", storage.tempDir, path)
	}
}

func TestLocalFileStorage_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	path, err := storage.Upload(ctx, NewFileInfo("../../escape", ".txt", []byte("x"), false))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if filepath.Dir(path) != storage.AssetsDir() {
		t.Fatalf("upload escaped the assets dir: %s", path)
	}

	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.GetFile(ctx, outside); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist for outside path, got %v", err)
	}
}

func TestLocalFileStorage_EmptyContent(t *testing.T) {
	storage := newTestStorage(t)

	if _, err := storage.Upload(context.Background(), NewFileInfo("empty", ".png", nil, false)); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestNewFileStorage_UnknownType(t *testing.T) {
	if _, err := NewFileStorage(&config.Config{Filesystem: "ftp"}); err == nil {
		t.Fatal("expected an error for an unknown filesystem type")
	}
}
