package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"videotube/internal/config"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/security"
	"videotube/internal/storage"
)

var (
	pngHead = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}
	mp4Head = []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0, 0, 2, 0}
	txtHead = []byte("just some text, not media")
)

var cheapParams = security.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type memoryUsers struct {
	mu     sync.Mutex
	byID   map[string]models.User
	failOn string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: make(map[string]models.User)}
}

var errStoreDown = errors.New("store unavailable")

func (m *memoryUsers) fail(op string) error {
	if m.failOn == op {
		return errStoreDown
	}
	return nil
}

func (m *memoryUsers) Create(_ context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("create"); err != nil {
		return models.User{}, err
	}
	for _, existing := range m.byID {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, repository.ErrUserExists
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *memoryUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("find"); err != nil {
		return models.User{}, err
	}
	for _, user := range m.byID {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memoryUsers) SetRefreshTokenHash(_ context.Context, id string, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.RefreshTokenHash = hash
	m.byID[id] = user
	return nil
}

func (m *memoryUsers) RotateRefreshTokenHash(_ context.Context, id string, oldHash, newHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok || len(user.RefreshTokenHash) == 0 || !bytes.Equal(user.RefreshTokenHash, oldHash) {
		return repository.ErrRefreshTokenMismatch
	}
	user.RefreshTokenHash = newHash
	m.byID[id] = user
	return nil
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, id string, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	m.byID[id] = user
	return nil
}

func (m *memoryUsers) UpdateDetails(_ context.Context, id, fullName, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	for otherID, other := range m.byID {
		if otherID != id && other.Email == email {
			return models.User{}, repository.ErrUserExists
		}
	}
	user.FullName = fullName
	user.Email = email
	m.byID[id] = user
	return user, nil
}

func (m *memoryUsers) UpdateAvatar(_ context.Context, id, url, objectKey string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	user.AvatarURL = url
	user.AvatarObjectKey = objectKey
	m.byID[id] = user
	return user, nil
}

func (m *memoryUsers) UpdateCoverImage(_ context.Context, id, url, objectKey string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	user.CoverImageURL = &url
	user.CoverImageObjectKey = &objectKey
	m.byID[id] = user
	return user, nil
}

func (m *memoryUsers) GetChannel(_ context.Context, username string) (models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Username == username {
			return models.Channel{
				ID:            user.ID,
				Username:      user.Username,
				FullName:      user.FullName,
				AvatarURL:     user.AvatarURL,
				CoverImageURL: user.CoverImageURL,
				CreatedAt:     user.CreatedAt,
			}, nil
		}
	}
	return models.Channel{}, repository.ErrUserNotFound
}

type memoryVideos struct {
	mu       sync.Mutex
	videos   []models.Video
	watched  map[string][]models.WatchedVideo
	failed   bool
	viewFail bool
}

func (m *memoryVideos) Create(_ context.Context, video models.Video) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return models.Video{}, errStoreDown
	}
	video.CreatedAt = time.Now()
	m.videos = append(m.videos, video)
	return video, nil
}

func (m *memoryVideos) GetByID(_ context.Context, id string) (models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.videos {
		if v.ID == id {
			return v, nil
		}
	}
	return models.Video{}, repository.ErrVideoNotFound
}

func (m *memoryVideos) ListByOwner(_ context.Context, ownerID string, publishedOnly bool, limit, offset int) ([]models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []models.Video
	for _, v := range m.videos {
		if v.OwnerID == ownerID && (v.IsPublished || !publishedOnly) {
			owned = append(owned, v)
		}
	}
	return paginate(owned, limit, offset), nil
}

func (m *memoryVideos) RecordView(_ context.Context, userID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewFail {
		return errStoreDown
	}
	var video models.Video
	for i := range m.videos {
		if m.videos[i].ID == videoID {
			m.videos[i].Views++
			video = m.videos[i]
		}
	}
	if m.watched == nil {
		m.watched = make(map[string][]models.WatchedVideo)
	}
	entries := []models.WatchedVideo{{Video: video, WatchedAt: time.Now()}}
	for _, e := range m.watched[userID] {
		if e.Video.ID != videoID {
			entries = append(entries, e)
		}
	}
	m.watched[userID] = entries
	return nil
}

func (m *memoryVideos) WatchHistory(_ context.Context, userID string, limit, offset int) ([]models.WatchedVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failed {
		return nil, errStoreDown
	}
	return paginate(m.watched[userID], limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

type recordingUploader struct {
	mu       sync.Mutex
	uploaded []string
	seen     []string
	err      error
	failFor  string
}

func (u *recordingUploader) Upload(_ context.Context, localPath, prefix, ext, _ string) (storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.seen = append(u.seen, localPath)
	if u.err != nil || (u.failFor != "" && u.failFor == prefix) {
		return storage.UploadResult{}, errors.New("upload timed out")
	}
	key := prefix + "/" + filepath.Base(localPath) + "." + ext
	u.uploaded = append(u.uploaded, key)
	return storage.UploadResult{URL: "http://media.test/videotube/" + key, Key: key}, nil
}

type recordingQueue struct {
	mu      sync.Mutex
	deleted []string
}

func (q *recordingQueue) EnqueueDelete(_ context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, key)
	return nil
}

func (q *recordingQueue) keys() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

// stageFile writes a temp upload with the given leading bytes.
func stageFile(t *testing.T, name string, head []byte) *models.MediaFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, append(head, make([]byte, 64)...), 0o600))
	return &models.MediaFile{Path: path, Filename: name, Size: int64(len(head) + 64)}
}

func requireRemoved(t *testing.T, files ...*models.MediaFile) {
	t.Helper()
	for _, f := range files {
		_, err := os.Stat(f.Path)
		require.ErrorIs(t, err, os.ErrNotExist, "temp file %s still present", f.Path)
	}
}

func testIssuer() *security.TokenIssuer {
	return security.NewTokenIssuer(config.SecurityConfig{
		JWTAccessSecret:  "access-secret-for-tests",
		JWTRefreshSecret: "refresh-secret-for-tests",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    240 * time.Hour,
		JWTIssuer:        "videotube-test",
	})
}

type authFixture struct {
	svc      *AuthService
	users    *memoryUsers
	uploader *recordingUploader
	queue    *recordingQueue
}

func newAuthFixture() authFixture {
	users := newMemoryUsers()
	uploader := &recordingUploader{}
	queue := &recordingQueue{}
	svc := NewAuthService(users, testIssuer(), uploader, queue, zerolog.Nop())
	svc.hash = func(password string) ([]byte, error) {
		return security.HashPasswordWithParams(password, cheapParams)
	}
	return authFixture{svc: svc, users: users, uploader: uploader, queue: queue}
}
