package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 1000)
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2_sha256", parts[0])
	assert.Equal(t, "1000", parts[1])

	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("wrong horse", hash))

	again, err := HashPassword("correct horse", 1000)
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salt is random")
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain",
		"md5$1000$c2FsdA$a2V5",
		"pbkdf2_sha256$x$c2FsdA$a2V5",
		"pbkdf2_sha256$0$c2FsdA$a2V5",
		"pbkdf2_sha256$1000$!!$a2V5",
	} {
		assert.False(t, VerifyPassword("pw", encoded), encoded)
	}
}
