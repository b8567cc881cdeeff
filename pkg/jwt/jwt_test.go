package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("pl__42", 5, testSecret, 1)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "pl__42", claims.UserId)
	assert.Equal(t, 5, claims.PlatformId)
	assert.Equal(t, "playr-chat", claims.Issuer)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("pl__42", 5, testSecret, 1)
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("pl__42", 5, testSecret, -1)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", testSecret)
	assert.Error(t, err)
}

func TestValidateTokenMatches(t *testing.T) {
	token, err := GenerateToken("pl__42", 5, testSecret, 1)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret, "pl__42", 5)
	require.NoError(t, err)
	assert.Equal(t, "pl__42", claims.UserId)
}

func TestValidateTokenUserMismatch(t *testing.T) {
	token, err := GenerateToken("pl__42", 5, testSecret, 1)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "co__7", 5)
	assert.Error(t, err)
}

func TestValidateTokenPlatformMismatch(t *testing.T) {
	token, err := GenerateToken("pl__42", 5, testSecret, 1)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret, "pl__42", 2)
	assert.Error(t, err)
}
