package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
	"videotube/internal/ids"
	"videotube/internal/models"
)

// stageUpload saves a multipart file into the temp directory. A missing
// field, or a body that is not multipart at all, yields nil without error;
// services decide whether the file was required.
func (h HandlerSet) stageUpload(c *gin.Context, field string) (*models.MediaFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.TooLarge("request body too large")
		}
		return nil, apperr.Wrap(apperr.KindValidation, "malformed multipart body", err)
	}

	if limit := h.cfg.Media.MaxUploadBytes; limit > 0 && header.Size > limit {
		return nil, apperr.Validation(fmt.Sprintf("%s exceeds the %d byte limit", field, limit))
	}

	dir := h.cfg.Media.TempDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create temp dir: %w", err))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	path := filepath.Join(dir, ids.New()+ext)
	if err := c.SaveUploadedFile(header, path); err != nil {
		_ = os.Remove(path)
		return nil, apperr.Internal(fmt.Errorf("stage %s: %w", field, err))
	}

	return &models.MediaFile{
		Path:     path,
		Filename: filepath.Base(header.Filename),
		Size:     header.Size,
	}, nil
}

// stageUploads stages each field in turn. On error, files staged so far
// are removed before returning.
func (h HandlerSet) stageUploads(c *gin.Context, fields ...string) ([]*models.MediaFile, error) {
	files := make([]*models.MediaFile, 0, len(fields))
	for _, field := range fields {
		file, err := h.stageUpload(c, field)
		if err != nil {
			removeStaged(files...)
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func removeStaged(files ...*models.MediaFile) {
	for _, f := range files {
		if f != nil {
			_ = os.Remove(f.Path)
		}
	}
}
