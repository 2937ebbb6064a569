package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZLoganZ/SocialNetwork-Server/internal/password"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := password.Hash("s3cret-passw0rd")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := password.Verify("s3cret-passw0rd", encoded)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = password.Verify("wrong-password", encoded)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	first, err := password.Hash("same-input")
	require.NoError(t, err)
	second, err := password.Hash("same-input")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	for _, encoded := range []string{first, second} {
		ok, err := password.Verify("same-input", encoded)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=65536,t=3,p=2$not-base64!$ZGlnZXN0",
		"$argon2id$v=19$m=65536,t=3,p=2$c2FsdA",
	}
	for _, encoded := range cases {
		_, err := password.Verify("whatever", encoded)
		require.ErrorIs(t, err, password.ErrMalformedHash)
	}
}
