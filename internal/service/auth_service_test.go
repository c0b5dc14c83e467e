package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videotube/internal/apperr"
	"videotube/internal/models"
	"videotube/internal/security"
)

func registerAlice(t *testing.T, f authFixture) models.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		Username: " Alice ",
		Email:    "Alice@Example.com",
		Password: "p@ssw0rd",
		FullName: "Alice Liddell",
		Avatar:   stageFile(t, "avatar.png", pngHead),
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	avatar := stageFile(t, "avatar.png", pngHead)
	cover := stageFile(t, "cover.png", pngHead)

	user, err := f.svc.Register(context.Background(), RegisterInput{
		Username:   " Alice ",
		Email:      "Alice@Example.com",
		Password:   "p@ssw0rd",
		FullName:   "Alice Liddell",
		Avatar:     avatar,
		CoverImage: cover,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Contains(t, user.AvatarURL, "avatars/")
	require.NotNil(t, user.CoverImageURL)
	assert.Contains(t, *user.CoverImageURL, "covers/")
	assert.Nil(t, user.PasswordHash)
	assert.Nil(t, user.RefreshTokenHash)
	requireRemoved(t, avatar, cover)

	stored, err := f.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored.PasswordHash), "p@ssw0rd")
	ok, err := security.VerifyPassword("p@ssw0rd", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
		kind  apperr.Kind
	}{
		{
			name:  "blank username",
			input: RegisterInput{Username: "  ", Email: "a@b.io", Password: "pw", FullName: "A"},
			kind:  apperr.KindValidation,
		},
		{
			name:  "blank password",
			input: RegisterInput{Username: "a", Email: "a@b.io", Password: " ", FullName: "A"},
			kind:  apperr.KindValidation,
		},
		{
			name:  "malformed email",
			input: RegisterInput{Username: "a", Email: "not-an-email", Password: "pw", FullName: "A"},
			kind:  apperr.KindValidation,
		},
		{
			name:  "missing avatar",
			input: RegisterInput{Username: "a", Email: "a@b.io", Password: "pw", FullName: "A"},
			kind:  apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			_, err := f.svc.Register(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Empty(t, f.uploader.seen)
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture()
	registerAlice(t, f)

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{name: "same username", username: "ALICE", email: "other@example.com"},
		{name: "same email", username: "someone", email: "alice@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avatar := stageFile(t, "avatar.png", pngHead)
			_, err := f.svc.Register(context.Background(), RegisterInput{
				Username: tt.username,
				Email:    tt.email,
				Password: "pw",
				FullName: "Someone",
				Avatar:   avatar,
			})
			assert.True(t, apperr.Is(err, apperr.KindConflict))
			requireRemoved(t, avatar)
		})
	}
}

func TestAuthService_Register_AvatarNotAnImage(t *testing.T) {
	f := newAuthFixture()
	avatar := stageFile(t, "avatar.txt", txtHead)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw", FullName: "Bob", Avatar: avatar,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, f.uploader.uploaded)
	requireRemoved(t, avatar)
}

func TestAuthService_Register_UploadFailure(t *testing.T) {
	f := newAuthFixture()
	f.uploader.failFor = "covers"
	avatar := stageFile(t, "avatar.png", pngHead)
	cover := stageFile(t, "cover.png", pngHead)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw", FullName: "Bob",
		Avatar: avatar, CoverImage: cover,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	requireRemoved(t, avatar, cover)

	// the avatar made it to storage and must be cleaned up
	require.Len(t, f.uploader.uploaded, 1)
	assert.Equal(t, f.uploader.uploaded, f.queue.keys())
}

func TestAuthService_Register_InsertFailureDiscardsObjects(t *testing.T) {
	f := newAuthFixture()
	f.users.failOn = "create"

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "bob@example.com", Password: "pw", FullName: "Bob",
		Avatar: stageFile(t, "avatar.png", pngHead),
	})
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.ElementsMatch(t, f.uploader.uploaded, f.queue.keys())
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture()
	alice := registerAlice(t, f)

	for _, input := range []LoginInput{
		{Username: "alice", Password: "p@ssw0rd"},
		{Email: "ALICE@example.com", Password: "p@ssw0rd"},
	} {
		result, err := f.svc.Login(context.Background(), input)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, result.User.ID)
		assert.Nil(t, result.User.PasswordHash)
		assert.Nil(t, result.User.RefreshTokenHash)

		claims, err := f.svc.Tokens().ParseAccess(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, claims.UserID)

		stored, err := f.users.GetByID(context.Background(), alice.ID)
		require.NoError(t, err)
		assert.True(t, security.TokenMatches(result.RefreshToken, stored.RefreshTokenHash))
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	f := newAuthFixture()
	registerAlice(t, f)

	tests := []struct {
		name  string
		input LoginInput
		kind  apperr.Kind
	}{
		{name: "no identifier", input: LoginInput{Password: "p@ssw0rd"}, kind: apperr.KindValidation},
		{name: "no password", input: LoginInput{Username: "alice"}, kind: apperr.KindValidation},
		{name: "unknown user", input: LoginInput{Username: "nobody", Password: "p@ssw0rd"}, kind: apperr.KindNotFound},
		{name: "wrong password", input: LoginInput{Username: "alice", Password: "wrong"}, kind: apperr.KindAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestAuthService_Refresh_Rotates(t *testing.T) {
	f := newAuthFixture()
	registerAlice(t, f)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "p@ssw0rd"})
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// the superseded token is dead
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = f.svc.Refresh(ctx, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_Rejects(t *testing.T) {
	f := newAuthFixture()
	registerAlice(t, f)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "p@ssw0rd"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "access token", token: login.AccessToken},
		{name: "unknown user", token: mustRefresh(t, f.svc.Tokens(), "2fZ8rM0u6Qn0pF8cGqW1z8x5bT1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Refresh(ctx, tt.token)
			assert.True(t, apperr.Is(err, apperr.KindAuth))
		})
	}
}

func mustRefresh(t *testing.T, issuer *security.TokenIssuer, userID string) string {
	t.Helper()
	token, err := issuer.IssueRefresh(userID)
	require.NoError(t, err)
	return token
}

func TestAuthService_Refresh_ConcurrentSingleWinner(t *testing.T) {
	f := newAuthFixture()
	registerAlice(t, f)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "p@ssw0rd"})
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Refresh(ctx, login.RefreshToken); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	alice := registerAlice(t, f)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "p@ssw0rd"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, alice.ID))
	require.NoError(t, f.svc.Logout(ctx, alice.ID))

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture()
	alice := registerAlice(t, f)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ChangePasswordInput
		kind  apperr.Kind
	}{
		{name: "blank", input: ChangePasswordInput{CurrentPassword: "p@ssw0rd"}, kind: apperr.KindValidation},
		{name: "mismatch", input: ChangePasswordInput{CurrentPassword: "p@ssw0rd", NewPassword: "a", ConfirmPassword: "b"}, kind: apperr.KindValidation},
		{name: "wrong current", input: ChangePasswordInput{CurrentPassword: "nope", NewPassword: "n3w", ConfirmPassword: "n3w"}, kind: apperr.KindAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.ChangePassword(ctx, alice.ID, tt.input)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	err := f.svc.ChangePassword(ctx, alice.ID, ChangePasswordInput{
		CurrentPassword: "p@ssw0rd", NewPassword: "n3w-secret", ConfirmPassword: "n3w-secret",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginInput{Username: "alice", Password: "p@ssw0rd"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))
	_, err = f.svc.Login(ctx, LoginInput{Username: "alice", Password: "n3w-secret"})
	assert.NoError(t, err)
}

func TestAuthService_CurrentUser(t *testing.T) {
	f := newAuthFixture()
	alice := registerAlice(t, f)

	user, err := f.svc.CurrentUser(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Nil(t, user.PasswordHash)

	_, err = f.svc.CurrentUser(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAuthService_ResolveAccessToken(t *testing.T) {
	f := newAuthFixture()
	alice := registerAlice(t, f)

	access, err := f.svc.Tokens().IssueAccess(alice.ID)
	require.NoError(t, err)

	user, err := f.svc.ResolveAccessToken(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)

	refresh := mustRefresh(t, f.svc.Tokens(), alice.ID)
	_, err = f.svc.ResolveAccessToken(context.Background(), refresh)
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	orphan, err := f.svc.Tokens().IssueAccess("ghost")
	require.NoError(t, err)
	_, err = f.svc.ResolveAccessToken(context.Background(), orphan)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}
