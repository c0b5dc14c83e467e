package service

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"videotube/internal/apperr"
	"videotube/internal/media/sniffer"
	"videotube/internal/models"
	"videotube/internal/storage"
)

// mediaStager moves staged uploads to the media host and owns the local
// temporary files from the moment a service receives them.
type mediaStager struct {
	uploader MediaUploader
	cleanup  CleanupQueue
	log      zerolog.Logger
}

func newMediaStager(uploader MediaUploader, cleanup CleanupQueue, log zerolog.Logger) *mediaStager {
	return &mediaStager{uploader: uploader, cleanup: cleanup, log: log}
}

// upload checks the file is of the wanted class and pushes it to storage.
// The local file is removed whatever the outcome.
func (m *mediaStager) upload(ctx context.Context, file *models.MediaFile, class sniffer.Class, prefix, field string) (storage.UploadResult, error) {
	defer m.release(file)

	detected, err := sniffer.DetectFile(file.Path)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return storage.UploadResult{}, apperr.Validation(field + " must be " + articleFor(class))
		}
		return storage.UploadResult{}, apperr.Wrap(apperr.KindValidation, field+" could not be read", err)
	}
	if detected.Class != class {
		return storage.UploadResult{}, apperr.Validation(field + " must be " + articleFor(class))
	}

	result, err := m.uploader.Upload(ctx, file.Path, prefix, detected.Ext(), detected.MIME)
	if err != nil {
		m.log.Warn().Err(err).Str("field", field).Str("filename", file.Filename).Msg("media upload failed")
		return storage.UploadResult{}, apperr.Wrap(apperr.KindValidation, field+" upload failed", err)
	}
	return result, nil
}

// release deletes staged temporary files; already-removed files are fine.
func (m *mediaStager) release(files ...*models.MediaFile) {
	for _, f := range files {
		if f == nil || f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			m.log.Warn().Err(err).Str("path", f.Path).Msg("remove temp file failed")
		}
	}
}

// discard queues stored objects for deletion. Failures are logged only; the
// request outcome does not depend on them.
func (m *mediaStager) discard(ctx context.Context, keys ...string) {
	if m.cleanup == nil {
		return
	}
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := m.cleanup.EnqueueDelete(ctx, key); err != nil {
			m.log.Error().Err(err).Str("object_key", key).Msg("enqueue media delete failed")
		}
	}
}

func articleFor(class sniffer.Class) string {
	if class == sniffer.ClassImage {
		return "an image"
	}
	return "a video"
}
