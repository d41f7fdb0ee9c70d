package filestorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/house3d/internal/config"
)

type LocalFileStorage struct {
	assetsDir string
	tempDir   string
}

func NewLocalFileStorage(cfg *config.Config) (*LocalFileStorage, error) {
	if cfg.AssetsDir == "" {
		return nil, fmt.Errorf("assets directory is not set")
	}

	assetsDir, err := filepath.Abs(cfg.AssetsDir)
	if err != nil {
		return nil, err
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(assetsDir, "temp")
	}
	if tempDir, err = filepath.Abs(tempDir); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		assetsDir: assetsDir,
		tempDir:   tempDir,
	}, nil
}

// Upload writes the file and returns its absolute path.
func (u *LocalFileStorage) Upload(ctx context.Context, file FileInfo) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(file.Content) == 0 {
		return "", ErrEmptyFile
	}

	dir := u.assetsDir
	if file.IsTemp {
		dir = u.tempDir
	}

	filedest := filepath.Join(dir, filepath.Base(file.Filename()))
	if err := os.MkdirAll(filepath.Dir(filedest), os.ModePerm); err != nil {
		return "", err
	}

	if err := os.WriteFile(filedest, file.Content, os.FileMode(0644)); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filedest, nil
}

func (u *LocalFileStorage) UploadMultiple(ctx context.Context, files []FileInfo) ([]string, error) {
	return uploadEach(ctx, u, files)
}

// GetFile reads a file previously stored in the assets directory. Absolute
// paths returned by Upload are accepted as well.
func (u *LocalFileStorage) GetFile(ctx context.Context, filename string) (*FileInfo, error) {
	path := filename
	if !filepath.IsAbs(path) {
		path = filepath.Join(u.assetsDir, filepath.Base(filename))
	}
	if !strings.HasPrefix(path, u.assetsDir) && !strings.HasPrefix(path, u.tempDir) {
		return nil, os.ErrNotExist
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(path)
	return &FileInfo{
		Name:      strings.TrimSuffix(filepath.Base(path), ext),
		Extension: ext,
		Content:   content,
		IsTemp:    strings.HasPrefix(path, u.tempDir),
	}, nil
}

func (u *LocalFileStorage) AssetsDir() string {
	return u.assetsDir
}
