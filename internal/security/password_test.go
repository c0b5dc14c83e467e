package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast
var testParams = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPasswordWithParams("correct horse", testParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$v=19$m=8192,t=1,p=1$"))
	assert.NotContains(t, string(hash), "correct horse")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	a, err := HashPasswordWithParams("same", testParams)
	require.NoError(t, err)
	b, err := HashPasswordWithParams("same", testParams)
	require.NoError(t, err)
	assert.NotEqual(t, string(a), string(b))
}

func TestHashPassword_DefaultParams(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	ok, err := VerifyPassword("s3cret!", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"bcrypt", "$2a$10$abcdefghijklmnopqrstuv"},
		{"wrong version", "$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA"},
		{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA"},
		{"zero threads", "$argon2id$v=19$m=8192,t=1,p=0$c2FsdA$aGFzaA"},
		{"bad salt", "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA"},
		{"bad key", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyPassword("anything", []byte(tt.hash))
			assert.False(t, ok)
			assert.ErrorIs(t, err, ErrMalformedHash)
		})
	}
}
