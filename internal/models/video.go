package models

import "time"

type Video struct {
	ID                 string
	OwnerID            string
	VideoURL           string
	VideoObjectKey     string
	ThumbnailURL       string
	ThumbnailObjectKey string
	Title              string
	Description        string
	DurationSeconds    float64
	Views              int64
	IsPublished        bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// WatchedVideo is a video as it appears in a viewer's history.
type WatchedVideo struct {
	Video     Video
	WatchedAt time.Time
}
