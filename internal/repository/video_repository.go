package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"videotube/internal/models"
)

var ErrVideoNotFound = errors.New("video not found")

const videoColumns = `videos.id, videos.owner_id, videos.video_url, videos.video_object_key,
		       videos.thumbnail_url, videos.thumbnail_object_key, videos.title, videos.description,
		       videos.duration_seconds, videos.views, videos.is_published, videos.created_at, videos.updated_at`

type VideoRepository struct {
	db DBTX
}

func NewVideoRepository(db DBTX) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, video models.Video) (models.Video, error) {
	query := `
		INSERT INTO videos (
			id, owner_id, video_url, video_object_key, thumbnail_url, thumbnail_object_key,
			title, description, duration_seconds, views, is_published, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, NOW(), NOW()
		)
		RETURNING ` + videoColumns

	created, err := scanVideo(r.db.QueryRow(ctx, query,
		video.ID,
		video.OwnerID,
		video.VideoURL,
		video.VideoObjectKey,
		video.ThumbnailURL,
		video.ThumbnailObjectKey,
		video.Title,
		video.Description,
		video.DurationSeconds,
		video.IsPublished,
	))
	if err != nil {
		return models.Video{}, oops.In("video_repository").
			With("operation", "insert video").
			With("owner_id", video.OwnerID).
			Wrap(err)
	}
	return created, nil
}

func (r *VideoRepository) GetByID(ctx context.Context, id string) (models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrVideoNotFound
		}
		return models.Video{}, oops.In("video_repository").With("operation", "get video").With("video_id", id).Wrap(err)
	}
	return video, nil
}

// ListByOwner pages through an owner's videos, newest first. With
// publishedOnly set, drafts are left out.
func (r *VideoRepository) ListByOwner(ctx context.Context, ownerID string, publishedOnly bool, limit, offset int) ([]models.Video, error) {
	query := `
		SELECT ` + videoColumns + `
		FROM videos
		WHERE owner_id = $1 AND (is_published OR NOT $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, ownerID, publishedOnly, limit, offset)
	if err != nil {
		return nil, oops.In("video_repository").With("operation", "list videos").With("owner_id", ownerID).Wrap(err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0, limit)
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, oops.In("video_repository").With("operation", "scan video").Wrap(err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// RecordView counts one view and moves the video to the top of the
// viewer's history.
func (r *VideoRepository) RecordView(ctx context.Context, userID, videoID string) error {
	const query = `
		WITH counted AS (
			UPDATE videos SET views = views + 1 WHERE id = $2
		)
		INSERT INTO watch_history (user_id, video_id, watched_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = EXCLUDED.watched_at
	`
	if _, err := r.db.Exec(ctx, query, userID, videoID); err != nil {
		return oops.In("video_repository").
			With("operation", "record view").
			With("user_id", userID).
			With("video_id", videoID).
			Wrap(err)
	}
	return nil
}

// WatchHistory lists what userID has watched, most recent first. Videos
// unpublished since are hidden unless userID owns them.
func (r *VideoRepository) WatchHistory(ctx context.Context, userID string, limit, offset int) ([]models.WatchedVideo, error) {
	query := `
		SELECT ` + videoColumns + `, watch_history.watched_at
		FROM watch_history
		JOIN videos ON videos.id = watch_history.video_id
		WHERE watch_history.user_id = $1 AND (videos.is_published OR videos.owner_id = $1)
		ORDER BY watch_history.watched_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, oops.In("video_repository").With("operation", "watch history").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	history := make([]models.WatchedVideo, 0, limit)
	for rows.Next() {
		var entry models.WatchedVideo
		if err := rows.Scan(append(videoFields(&entry.Video), &entry.WatchedAt)...); err != nil {
			return nil, oops.In("video_repository").With("operation", "scan watch history").Wrap(err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(videoFields(&video)...)
	return video, err
}

// videoFields lists scan targets in videoColumns order.
func videoFields(video *models.Video) []any {
	return []any{
		&video.ID,
		&video.OwnerID,
		&video.VideoURL,
		&video.VideoObjectKey,
		&video.ThumbnailURL,
		&video.ThumbnailObjectKey,
		&video.Title,
		&video.Description,
		&video.DurationSeconds,
		&video.Views,
		&video.IsPublished,
		&video.CreatedAt,
		&video.UpdatedAt,
	}
}
