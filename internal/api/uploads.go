package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cozy-creator/house3d/internal/app"
	"github.com/cozy-creator/house3d/internal/db/models"
	"github.com/cozy-creator/house3d/internal/services/filestorage"
	"github.com/cozy-creator/house3d/internal/services/fileuploader"
	"github.com/cozy-creator/house3d/internal/services/projects"
	"github.com/cozy-creator/house3d/internal/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const (
	imagesField     = "images"
	maxImageSize    = 20 << 20
	imageMimePrefix = "image/"
)

const noImagesMessage = "No images uploaded"

// bindMultipart stores the uploaded images and returns create params that
// reference them by path.
func bindMultipart(c *gin.Context, app *app.App) (projects.CreateParams, error) {
	var params projects.CreateParams

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return params, types.NewValidationError(imagesField, "expected a multipart form")
		}
		return params, types.NewValidationError(imagesField, fmt.Sprintf("failed to parse form: %v", err))
	}

	if names := form.Value["name"]; len(names) > 0 {
		params.Name = names[0]
	}

	headers := form.File[imagesField]
	if len(headers) == 0 {
		return params, types.NewValidationError(imagesField, noImagesMessage)
	}
	if len(headers) > models.MaxInputs {
		return params, types.NewValidationError(imagesField, fmt.Sprintf("must contain at most %d items", models.MaxInputs))
	}

	files := make([]filestorage.FileInfo, len(headers))
	for i, header := range headers {
		file, err := readImage(header)
		if err != nil {
			return params, types.NewValidationError(fmt.Sprintf("%s[%d]", imagesField, i), err.Error())
		}
		files[i] = file
	}

	uploader := app.Uploader()
	if uploader == nil {
		return params, fmt.Errorf("file uploads are not configured")
	}

	paths, err := uploader.UploadAll(c.Request.Context(), files)
	if err != nil {
		return params, err
	}

	params.Inputs = make([]projects.InputParams, len(headers))
	for i, header := range headers {
		params.Inputs[i] = projects.InputParams{
			OriginalName: filepath.Base(header.Filename),
			StoredPath:   paths[i],
		}
	}

	return params, nil
}

func readImage(header *multipart.FileHeader) (filestorage.FileInfo, error) {
	if header.Size > maxImageSize {
		return filestorage.FileInfo{}, fmt.Errorf("file exceeds %d MB", maxImageSize>>20)
	}

	file, err := header.Open()
	if err != nil {
		return filestorage.FileInfo{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		return filestorage.FileInfo{}, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return filestorage.FileInfo{}, errors.New("file is empty")
	}

	mtype := mimetype.Detect(content)
	if !strings.HasPrefix(mtype.String(), imageMimePrefix) {
		return filestorage.FileInfo{}, errors.New("only image files are allowed")
	}

	extension := strings.ToLower(filepath.Ext(header.Filename))
	if extension == "" {
		extension = mtype.Extension()
	}

	return fileuploader.NamedFile(content, extension), nil
}
