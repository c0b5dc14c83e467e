package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"videotube/internal/apperr"
	"videotube/internal/ids"
	"videotube/internal/media/sniffer"
	"videotube/internal/models"
	"videotube/internal/repository"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type VideoService struct {
	videos VideoStore
	media  *mediaStager
	log    zerolog.Logger
}

func NewVideoService(videos VideoStore, uploader MediaUploader, cleanup CleanupQueue, log zerolog.Logger) *VideoService {
	return &VideoService{
		videos: videos,
		media:  newMediaStager(uploader, cleanup, log),
		log:    log,
	}
}

type PublishInput struct {
	Title           string
	Description     string
	DurationSeconds float64
	VideoFile       *models.MediaFile
	Thumbnail       *models.MediaFile
}

// Publish stores the video file and thumbnail, then records the metadata.
// Duration comes from the client; nothing here transcodes or inspects the file.
func (s *VideoService) Publish(ctx context.Context, ownerID string, input PublishInput) (models.Video, error) {
	defer s.media.release(input.VideoFile, input.Thumbnail)

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return models.Video{}, apperr.Validation("title and description are required")
	}
	if d := input.DurationSeconds; math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return models.Video{}, apperr.Validation("duration must be a non-negative number of seconds")
	}
	if input.VideoFile == nil {
		return models.Video{}, apperr.Validation("video file is required")
	}
	if input.Thumbnail == nil {
		return models.Video{}, apperr.Validation("thumbnail is required")
	}

	video, err := s.media.upload(ctx, input.VideoFile, sniffer.ClassVideo, "videos", "video file")
	if err != nil {
		return models.Video{}, err
	}
	thumbnail, err := s.media.upload(ctx, input.Thumbnail, sniffer.ClassImage, "thumbnails", "thumbnail")
	if err != nil {
		s.media.discard(ctx, video.Key)
		return models.Video{}, err
	}

	created, err := s.videos.Create(ctx, models.Video{
		ID:                 ids.New(),
		OwnerID:            ownerID,
		VideoURL:           video.URL,
		VideoObjectKey:     video.Key,
		ThumbnailURL:       thumbnail.URL,
		ThumbnailObjectKey: thumbnail.Key,
		Title:              title,
		Description:        description,
		DurationSeconds:    input.DurationSeconds,
		IsPublished:        true,
	})
	if err != nil {
		s.media.discard(ctx, video.Key, thumbnail.Key)
		return models.Video{}, apperr.Internal(err)
	}

	s.log.Info().Str("video_id", created.ID).Str("owner_id", ownerID).Msg("video published")
	return created, nil
}

// Get returns a video the viewer may see and records the view. Drafts are
// visible to their owner only.
func (s *VideoService) Get(ctx context.Context, viewerID, videoID string) (models.Video, error) {
	if !ids.Valid(videoID) {
		return models.Video{}, apperr.Validation("invalid video id")
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			return models.Video{}, apperr.NotFound("video not found")
		}
		return models.Video{}, apperr.Internal(err)
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return models.Video{}, apperr.NotFound("video not found")
	}

	if viewerID != "" {
		if err := s.videos.RecordView(ctx, viewerID, video.ID); err != nil {
			s.log.Warn().Err(err).Str("video_id", video.ID).Str("user_id", viewerID).Msg("record view failed")
		} else {
			video.Views++
		}
	}
	return video, nil
}

// ListByOwner pages through an owner's videos, newest first. Only the owner
// sees unpublished ones.
func (s *VideoService) ListByOwner(ctx context.Context, viewerID, ownerID string, limit, offset int) ([]models.Video, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Validation("owner is required")
	}
	limit, offset = clampPage(limit, offset)

	videos, err := s.videos.ListByOwner(ctx, ownerID, ownerID != viewerID, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return videos, nil
}

func (s *VideoService) WatchHistory(ctx context.Context, userID string, limit, offset int) ([]models.WatchedVideo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Auth("unauthorized request")
	}
	limit, offset = clampPage(limit, offset)

	history, err := s.videos.WatchHistory(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return history, nil
}

// clampPage falls back to DefaultPageSize for non-positive limits and caps
// them at MaxPageSize.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
