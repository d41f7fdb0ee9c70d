package filestorage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cozy-creator/house3d/internal/config"
)

var ErrEmptyFile = errors.New("file content is empty")

type FileInfo struct {
	Name      string
	Extension string
	Content   []byte
	IsTemp    bool
}

// FileStorage persists files and returns where they were stored: a local
// path for disk storage, a public URL for object storage.
type FileStorage interface {
	Upload(ctx context.Context, file FileInfo) (string, error)
	UploadMultiple(ctx context.Context, files []FileInfo) ([]string, error)
	GetFile(ctx context.Context, filename string) (*FileInfo, error)
}

func NewFileInfo(name string, extension string, content []byte, isTemp bool) FileInfo {
	return FileInfo{
		Name:      name,
		Extension: extension,
		Content:   content,
		IsTemp:    isTemp,
	}
}

func (f FileInfo) Filename() string {
	return fmt.Sprintf("%s%s", f.Name, f.Extension)
}

func NewFileStorage(cfg *config.Config) (FileStorage, error) {
	switch strings.ToLower(cfg.Filesystem) {
	case config.FilesystemLocal:
		return NewLocalFileStorage(cfg)
	case config.FilesystemS3:
		return NewS3FileStorage(cfg)
	}

	return nil, fmt.Errorf("invalid filesystem type %s", cfg.Filesystem)
}

func uploadEach(ctx context.Context, storage FileStorage, files []FileInfo) ([]string, error) {
	uploaded := make([]string, 0, len(files))
	for _, file := range files {
		destination, err := storage.Upload(ctx, file)
		if err != nil {
			return nil, err
		}

		uploaded = append(uploaded, destination)
	}

	return uploaded, nil
}
