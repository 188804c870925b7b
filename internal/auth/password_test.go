package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.NotContains(t, hash, "password1")
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	first, err := HashPassword("password1")
	require.NoError(t, err)

	second, err := HashPassword("password1")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "wrong password"))
	assert.False(t, VerifyPassword(hash, ""))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "plaintext"},
		{"wrong part count", "$argon2id$v=19$m=65536,t=3,p=4$onlysalt"},
		{"bad base64 salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA"},
		{"bad base64 hash", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!"},
		{"bad params", "$argon2id$v=19$nonsense$c2FsdA$aGFzaA"},
		{"empty digest", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$"},
		{"zero memory", "$argon2id$v=19$m=0,t=3,p=4$c2FsdA$aGFzaA"},
		{"zero time", "$argon2id$v=19$m=65536,t=0,p=4$c2FsdA$aGFzaA"},
		{"zero threads", "$argon2id$v=19$m=65536,t=3,p=0$c2FsdA$aGFzaA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, VerifyPassword(tc.hash, "password1"))
		})
	}
}
