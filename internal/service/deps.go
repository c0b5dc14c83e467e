package service

import (
	"context"

	"videotube/internal/models"
	"videotube/internal/storage"
)

// UserStore is the credential store; *repository.UserRepository implements it.
type UserStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error)
	SetRefreshTokenHash(ctx context.Context, id string, hash []byte) error
	RotateRefreshTokenHash(ctx context.Context, id string, oldHash, newHash []byte) error
	UpdatePasswordHash(ctx context.Context, id string, hash []byte) error
	UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url, objectKey string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url, objectKey string) (models.User, error)
	GetChannel(ctx context.Context, username string) (models.Channel, error)
}

type VideoStore interface {
	Create(ctx context.Context, video models.Video) (models.Video, error)
	GetByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, publishedOnly bool, limit, offset int) ([]models.Video, error)
	RecordView(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string, limit, offset int) ([]models.WatchedVideo, error)
}

// MediaUploader is the external media host; *storage.ObjectStore implements it.
type MediaUploader interface {
	Upload(ctx context.Context, localPath, prefix, ext, contentType string) (storage.UploadResult, error)
}

// CleanupQueue schedules deletion of objects nothing references any more.
type CleanupQueue interface {
	EnqueueDelete(ctx context.Context, objectKey string) error
}
