package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"videotube/internal/apperr"
	"videotube/internal/media/sniffer"
	"videotube/internal/models"
	"videotube/internal/repository"
)

type ProfileService struct {
	users UserStore
	media *mediaStager
	log   zerolog.Logger
}

func NewProfileService(users UserStore, uploader MediaUploader, cleanup CleanupQueue, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		users: users,
		media: newMediaStager(uploader, cleanup, log),
		log:   log,
	}
}

func (s *ProfileService) UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeIdentifier(email)
	if fullName == "" || email == "" {
		return models.User{}, apperr.Validation("full name and email are required")
	}
	if !validEmail(email) {
		return models.User{}, apperr.Validation("email is invalid")
	}

	user, err := s.users.UpdateDetails(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserExists):
			return models.User{}, apperr.Conflict("email is already in use")
		case errors.Is(err, repository.ErrUserNotFound):
			return models.User{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, apperr.Internal(err)
	}
	return user.Sanitized(), nil
}

func (s *ProfileService) UpdateAvatar(ctx context.Context, userID string, file *models.MediaFile) (models.User, error) {
	defer s.media.release(file)

	if file == nil {
		return models.User{}, apperr.Validation("avatar file is missing")
	}

	previous, err := s.lookup(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	uploaded, err := s.media.upload(ctx, file, sniffer.ClassImage, "avatars", "avatar")
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateAvatar(ctx, userID, uploaded.URL, uploaded.Key)
	if err != nil {
		s.media.discard(ctx, uploaded.Key)
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, apperr.Internal(err)
	}

	s.media.discard(ctx, previous.AvatarObjectKey)
	return user.Sanitized(), nil
}

func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID string, file *models.MediaFile) (models.User, error) {
	defer s.media.release(file)

	if file == nil {
		return models.User{}, apperr.Validation("cover image file is missing")
	}

	previous, err := s.lookup(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	uploaded, err := s.media.upload(ctx, file, sniffer.ClassImage, "covers", "cover image")
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.UpdateCoverImage(ctx, userID, uploaded.URL, uploaded.Key)
	if err != nil {
		s.media.discard(ctx, uploaded.Key)
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, apperr.Internal(err)
	}

	if previous.CoverImageObjectKey != nil {
		s.media.discard(ctx, *previous.CoverImageObjectKey)
	}
	return user.Sanitized(), nil
}

func (s *ProfileService) ChannelProfile(ctx context.Context, username string) (models.Channel, error) {
	username = normalizeIdentifier(username)
	if username == "" {
		return models.Channel{}, apperr.Validation("username is missing")
	}

	channel, err := s.users.GetChannel(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Channel{}, apperr.NotFound("channel does not exist")
		}
		return models.Channel{}, apperr.Internal(err)
	}
	return channel, nil
}

func (s *ProfileService) lookup(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, apperr.Internal(err)
	}
	return user, nil
}
