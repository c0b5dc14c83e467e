package models

import "time"

type User struct {
	ID                  string
	Username            string
	Email               string
	FullName            string
	PasswordHash        []byte `json:"-"`
	RefreshTokenHash    []byte `json:"-"`
	AvatarURL           string
	AvatarObjectKey     string
	CoverImageURL       *string
	CoverImageObjectKey *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Sanitized returns a copy without the password hash and refresh token.
func (u User) Sanitized() User {
	u.PasswordHash = nil
	u.RefreshTokenHash = nil
	return u
}

// Channel is the public view of a user.
type Channel struct {
	ID            string
	Username      string
	FullName      string
	AvatarURL     string
	CoverImageURL *string
	VideosCount   int
	CreatedAt     time.Time
}
