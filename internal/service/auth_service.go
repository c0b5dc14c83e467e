package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"videotube/internal/apperr"
	"videotube/internal/ids"
	"videotube/internal/media/sniffer"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/security"
	"videotube/internal/storage"
)

const (
	msgInvalidCredentials = "invalid user credentials"
	msgRefreshRejected    = "refresh token is expired or used"
	msgInvalidRefresh     = "invalid refresh token"
)

type AuthService struct {
	users  UserStore
	tokens *security.TokenIssuer
	media  *mediaStager
	log    zerolog.Logger

	hash   func(password string) ([]byte, error)
	verify func(password string, hash []byte) (bool, error)
}

func NewAuthService(
	users UserStore,
	tokens *security.TokenIssuer,
	uploader MediaUploader,
	cleanup CleanupQueue,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		media:  newMediaStager(uploader, cleanup, log),
		log:    log,
		hash:   security.HashPassword,
		verify: security.VerifyPassword,
	}
}

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FullName   string
	Avatar     *models.MediaFile
	CoverImage *models.MediaFile
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

type AuthResult struct {
	User         models.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	defer s.media.release(input.Avatar, input.CoverImage)

	username := normalizeIdentifier(input.Username)
	email := normalizeIdentifier(input.Email)
	fullName := strings.TrimSpace(input.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(input.Password) == "" {
		return models.User{}, apperr.Validation("all fields are required")
	}
	if !validEmail(email) {
		return models.User{}, apperr.Validation("email is invalid")
	}

	if _, err := s.users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return models.User{}, apperr.Conflict("user with given email or username already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, apperr.Internal(err)
	}

	if input.Avatar == nil {
		return models.User{}, apperr.Validation("avatar image is required")
	}

	avatar, err := s.media.upload(ctx, input.Avatar, sniffer.ClassImage, "avatars", "avatar")
	if err != nil {
		return models.User{}, err
	}

	var cover *storage.UploadResult
	if input.CoverImage != nil {
		uploaded, err := s.media.upload(ctx, input.CoverImage, sniffer.ClassImage, "covers", "cover image")
		if err != nil {
			s.media.discard(ctx, avatar.Key)
			return models.User{}, err
		}
		cover = &uploaded
	}

	passwordHash, err := s.hash(input.Password)
	if err != nil {
		s.media.discard(ctx, avatar.Key, coverKey(cover))
		return models.User{}, apperr.Internal(err)
	}

	user := models.User{
		ID:              ids.New(),
		Username:        username,
		Email:           email,
		FullName:        fullName,
		PasswordHash:    passwordHash,
		AvatarURL:       avatar.URL,
		AvatarObjectKey: avatar.Key,
	}
	if cover != nil {
		user.CoverImageURL = &cover.URL
		user.CoverImageObjectKey = &cover.Key
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		s.media.discard(ctx, avatar.Key, coverKey(cover))
		if errors.Is(err, repository.ErrUserExists) {
			return models.User{}, apperr.Conflict("user with given email or username already exists")
		}
		return models.User{}, apperr.Internal(err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created.Sanitized(), nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	username := normalizeIdentifier(input.Username)
	email := normalizeIdentifier(input.Email)
	if username == "" && email == "" {
		return AuthResult{}, apperr.Validation("username or email is required")
	}
	if input.Password == "" {
		return AuthResult{}, apperr.Validation("password is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.NotFound("user does not exist")
		}
		return AuthResult{}, apperr.Internal(err)
	}

	ok, err := s.verify(input.Password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash unreadable")
		return AuthResult{}, apperr.Auth(msgInvalidCredentials)
	}
	if !ok {
		return AuthResult{}, apperr.Auth(msgInvalidCredentials)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "token generation failed", err)
	}
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, security.HashToken(pair.RefreshToken)); err != nil {
		return AuthResult{}, apperr.Internal(err)
	}

	return AuthResult{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout forgets the stored refresh token. Calling it twice is harmless.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	err := s.users.SetRefreshTokenHash(ctx, userID, nil)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return apperr.Internal(err)
	}
	return nil
}

// Refresh exchanges the current refresh token for a new pair. The stored
// token is swapped atomically, so a superseded token never works again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return AuthResult{}, apperr.Auth("unauthorized request")
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return AuthResult{}, apperr.Auth(msgInvalidRefresh)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, apperr.Auth(msgInvalidRefresh)
		}
		return AuthResult{}, apperr.Internal(err)
	}

	if !security.TokenMatches(refreshToken, user.RefreshTokenHash) {
		s.log.Warn().Str("user_id", user.ID).Msg("stale refresh token presented")
		return AuthResult{}, apperr.Auth(msgRefreshRejected)
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return AuthResult{}, apperr.Wrap(apperr.KindInternal, "token generation failed", err)
	}

	err = s.users.RotateRefreshTokenHash(ctx, user.ID, security.HashToken(refreshToken), security.HashToken(pair.RefreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			return AuthResult{}, apperr.Auth(msgRefreshRejected)
		}
		return AuthResult{}, apperr.Internal(err)
	}

	return AuthResult{
		User:         user.Sanitized(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error {
	if input.CurrentPassword == "" || strings.TrimSpace(input.NewPassword) == "" || input.ConfirmPassword == "" {
		return apperr.Validation("old, new and confirm password are required")
	}
	if input.NewPassword != input.ConfirmPassword {
		return apperr.Validation("new password and confirm password do not match")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("user does not exist")
		}
		return apperr.Internal(err)
	}

	ok, err := s.verify(input.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return apperr.Auth("invalid old password")
	}

	passwordHash, err := s.hash(input.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, passwordHash); err != nil {
		return apperr.Internal(err)
	}

	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.NotFound("user does not exist")
		}
		return models.User{}, apperr.Internal(err)
	}
	return user.Sanitized(), nil
}

// ResolveAccessToken maps a bearer credential to its sanitized user. Every
// failure is the same auth error.
func (s *AuthService) ResolveAccessToken(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return models.User{}, apperr.Auth("invalid access token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, apperr.Auth("invalid access token")
		}
		return models.User{}, apperr.Internal(err)
	}
	return user.Sanitized(), nil
}

func (s *AuthService) Tokens() *security.TokenIssuer {
	return s.tokens
}

func normalizeIdentifier(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func coverKey(cover *storage.UploadResult) string {
	if cover == nil {
		return ""
	}
	return cover.Key
}
