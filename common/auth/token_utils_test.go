package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseAndValidateToken(t *testing.T) {
	valid := sign(t, jwt.MapClaims{
		"sub": "5b0b7a3e-8a3f-4a8e-9c55-6a3f0c7d1e2f",
		"typ": "access",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256, testSecret)

	claims, err := ParseAndValidateToken(valid, testSecret, "access")
	require.NoError(t, err)
	sub, err := SubjectFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, "5b0b7a3e-8a3f-4a8e-9c55-6a3f0c7d1e2f", sub)

	_, err = ParseAndValidateToken(valid, testSecret, "refresh")
	assert.EqualError(t, err, "invalid token type")

	_, err = ParseAndValidateToken(valid, []byte("other"), "")
	assert.Error(t, err)

	_, err = ParseAndValidateToken(valid, nil, "")
	assert.EqualError(t, err, "JWT secret not configured")

	expired := sign(t, jwt.MapClaims{
		"sub": "u",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}, jwt.SigningMethodHS256, testSecret)
	_, err = ParseAndValidateToken(expired, testSecret, "")
	assert.Error(t, err)
}

func TestSubjectFromClaimsMissing(t *testing.T) {
	_, err := SubjectFromClaims(jwt.MapClaims{"typ": "access"})
	assert.Error(t, err)
}
