package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"videotube/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user with given username or email already exists")
	// ErrRefreshTokenMismatch means the stored refresh token changed underneath a rotation.
	ErrRefreshTokenMismatch = errors.New("refresh token does not match")
)

const userColumns = `id, username, email, full_name, password_hash, refresh_token_hash,
		       avatar_url, avatar_object_key, cover_image_url, cover_image_object_key,
		       created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			id, username, email, full_name, password_hash,
			avatar_url, avatar_object_key, cover_image_url, cover_image_object_key,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
		RETURNING ` + userColumns

	row := r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.AvatarObjectKey,
		user.CoverImageURL,
		user.CoverImageObjectKey,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrUserExists
		}
		return models.User{}, oops.In("user_repository").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, oops.In("user_repository").With("operation", "get user").With("user_id", id).Wrap(err)
	}
	return user, nil
}

// FindByUsernameOrEmail matches on whichever identifiers are non-empty.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (models.User, error) {
	if username == "" && email == "" {
		return models.User{}, ErrUserNotFound
	}

	query := `SELECT ` + userColumns + `
		FROM users
		WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		ORDER BY created_at
		LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, username, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, oops.In("user_repository").
			With("operation", "find user").
			With("username", username).
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// SetRefreshTokenHash overwrites the stored refresh token; nil clears it.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, id string, hash []byte) error {
	const query = `
		UPDATE users SET refresh_token_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return oops.In("user_repository").With("operation", "set refresh token").With("user_id", id).Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RotateRefreshTokenHash swaps the stored refresh token only if it still
// equals oldHash.
func (r *UserRepository) RotateRefreshTokenHash(ctx context.Context, id string, oldHash, newHash []byte) error {
	const query = `
		UPDATE users
		SET refresh_token_hash = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2
	`
	cmd, err := r.db.Exec(ctx, query, id, oldHash, newHash)
	if err != nil {
		return oops.In("user_repository").With("operation", "rotate refresh token").With("user_id", id).Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id string, hash []byte) error {
	const query = `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`
	cmd, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return oops.In("user_repository").With("operation", "update password").With("user_id", id).Wrap(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) (models.User, error) {
	query := `
		UPDATE users SET full_name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, fullName, email))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return models.User{}, ErrUserNotFound
		case isUniqueViolation(err):
			return models.User{}, ErrUserExists
		}
		return models.User{}, oops.In("user_repository").With("operation", "update details").With("user_id", id).Wrap(err)
	}
	return user, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url, objectKey string) (models.User, error) {
	query := `
		UPDATE users SET avatar_url = $2, avatar_object_key = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, url, objectKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, oops.In("user_repository").With("operation", "update avatar").With("user_id", id).Wrap(err)
	}
	return user, nil
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url, objectKey string) (models.User, error) {
	query := `
		UPDATE users SET cover_image_url = $2, cover_image_object_key = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, id, url, objectKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, oops.In("user_repository").With("operation", "update cover image").With("user_id", id).Wrap(err)
	}
	return user, nil
}

func (r *UserRepository) GetChannel(ctx context.Context, username string) (models.Channel, error) {
	const query = `
		SELECT u.id, u.username, u.full_name, u.avatar_url, u.cover_image_url, u.created_at,
		       (SELECT COUNT(*) FROM videos v WHERE v.owner_id = u.id AND v.is_published)
		FROM users u
		WHERE u.username = $1
	`

	var channel models.Channel
	if err := r.db.QueryRow(ctx, query, username).Scan(
		&channel.ID,
		&channel.Username,
		&channel.FullName,
		&channel.AvatarURL,
		&channel.CoverImageURL,
		&channel.CreatedAt,
		&channel.VideosCount,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Channel{}, ErrUserNotFound
		}
		return models.Channel{}, oops.In("user_repository").With("operation", "get channel").With("username", username).Wrap(err)
	}
	return channel, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.AvatarURL,
		&user.AvatarObjectKey,
		&user.CoverImageURL,
		&user.CoverImageObjectKey,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
