package fileuploader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cozy-creator/house3d/internal/services/filestorage"
	"github.com/cozy-creator/house3d/internal/utils/hashutil"
	"github.com/gammazero/workerpool"
)

type Uploader struct {
	wp          *workerpool.WorkerPool
	filestorage filestorage.FileStorage
}

func NewFileUploader(filestorage filestorage.FileStorage, maxWorkers int) *Uploader {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Uploader{
		wp:          workerpool.New(maxWorkers),
		filestorage: filestorage,
	}
}

func (w *Uploader) Stop() {
	w.wp.StopWait()
}

// NamedFile builds a FileInfo named by the blake3 hash of its content, so
// identical uploads share one stored file.
func NamedFile(content []byte, extension string) filestorage.FileInfo {
	return filestorage.NewFileInfo(hashutil.Blake3Hash(content), extension, content, false)
}

// UploadAll stores files concurrently and returns their locations in input
// order. The first failure is returned once every upload has finished.
func (w *Uploader) UploadAll(ctx context.Context, files []filestorage.FileInfo) ([]string, error) {
	if w.filestorage == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	locations := make([]string, len(files))
	for i, file := range files {
		i, file := i, file
		wg.Add(1)
		w.wp.Submit(func() {
			defer wg.Done()

			location, err := w.filestorage.Upload(ctx, file)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to upload %s: %w", file.Filename(), err)
				}
				mu.Unlock()
				return
			}

			locations[i] = location
		})
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return locations, nil
}

func (w *Uploader) UploadBytes(ctx context.Context, content []byte, extension string) (string, error) {
	locations, err := w.UploadAll(ctx, []filestorage.FileInfo{NamedFile(content, extension)})
	if err != nil {
		return "", err
	}

	return locations[0], nil
}

// PublishFile copies a local file (typically a generated model) into storage.
func (w *Uploader) PublishFile(ctx context.Context, localPath string) (string, error) {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	return w.UploadBytes(ctx, content, filepath.Ext(localPath))
}
