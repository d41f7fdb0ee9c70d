package fileuploader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cozy-creator/house3d/internal/config"
	"github.com/cozy-creator/house3d/internal/services/filestorage"
	"github.com/cozy-creator/house3d/internal/utils/hashutil"
)

func newTestUploader(t *testing.T) (*Uploader, string) {
	t.Helper()

	assetsDir := filepath.Join(t.TempDir(), "assets")
	storage, err := filestorage.NewLocalFileStorage(&config.Config{AssetsDir: assetsDir})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	uploader := NewFileUploader(storage, 3)
	t.Cleanup(uploader.Stop)

	return uploader, assetsDir
}

func TestUploader_UploadAllKeepsOrder(t *testing.T) {
	uploader, assetsDir := newTestUploader(t)

	var files []filestorage.FileInfo
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, NamedFile([]byte(content), ".png"))
	}

	locations, err := uploader.UploadAll(context.Background(), files)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	for i, content := range []string{"a", "b", "c", "d", "e"} {
		want := filepath.Join(assetsDir, hashutil.Blake3Hash([]byte(content))+".png")
		if locations[i] != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, locations[i])
		}
	}
}

func TestUploader_UploadAllReportsFailure(t *testing.T) {
	uploader, _ := newTestUploader(t)

	files := []filestorage.FileInfo{
		NamedFile([]byte("ok"), ".png"),
		filestorage.NewFileInfo("empty", ".png", nil, false),
	}

	if _, err := uploader.UploadAll(context.Background(), files); !errors.Is(err, filestorage.ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestUploader_PublishFile(t *testing.T) {
	uploader, assetsDir := newTestUploader(t)

	source := filepath.Join(t.TempDir(), "model.glb")
	if err := os.WriteFile(source, []byte("glTF"), 0644); err != nil {
		t.Fatal(err)
	}

	location, err := uploader.PublishFile(context.Background(), source)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	want := filepath.Join(assetsDir, hashutil.Blake3Hash([]byte("glTF"))+".glb")
	if location != want {
		t.Fatalf("expected %s, got %s", want, location)
	}
}
