package handlers

import (
	"time"

	"videotube/internal/models"
	"videotube/internal/service"
)

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage *string   `json:"coverImage"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type authResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type channelResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"fullName"`
	Avatar      string    `json:"avatar"`
	CoverImage  *string   `json:"coverImage"`
	VideosCount int       `json:"videosCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type videoResponse struct {
	ID              string    `json:"id"`
	Owner           string    `json:"owner"`
	VideoFile       string    `json:"videoFile"`
	Thumbnail       string    `json:"thumbnail"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DurationSeconds float64   `json:"duration"`
	Views           int64     `json:"views"`
	IsPublished     bool      `json:"isPublished"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type videoListResponse struct {
	Videos  []videoResponse `json:"videos"`
	Page    int             `json:"page"`
	PerPage int             `json:"perPage"`
}

type watchedVideoResponse struct {
	videoResponse
	WatchedAt time.Time `json:"watchedAt"`
}

type watchHistoryResponse struct {
	Videos  []watchedVideoResponse `json:"videos"`
	Page    int                    `json:"page"`
	PerPage int                    `json:"perPage"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.AvatarURL,
		CoverImage: u.CoverImageURL,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func toAuthResponse(r service.AuthResult) authResponse {
	return authResponse{
		User:         toUserResponse(r.User),
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}

func toChannelResponse(ch models.Channel) channelResponse {
	return channelResponse{
		ID:          ch.ID,
		Username:    ch.Username,
		FullName:    ch.FullName,
		Avatar:      ch.AvatarURL,
		CoverImage:  ch.CoverImageURL,
		VideosCount: ch.VideosCount,
		CreatedAt:   ch.CreatedAt,
	}
}

func toVideoResponse(v models.Video) videoResponse {
	return videoResponse{
		ID:              v.ID,
		Owner:           v.OwnerID,
		VideoFile:       v.VideoURL,
		Thumbnail:       v.ThumbnailURL,
		Title:           v.Title,
		Description:     v.Description,
		DurationSeconds: v.DurationSeconds,
		Views:           v.Views,
		IsPublished:     v.IsPublished,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}
