package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func TestTokenServiceRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testSecret, "test-issuer", "test-audience", 1*time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateOperatorToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateOperatorToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, uint(42), claims.OperatorID)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestTokenServiceRejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("too-short", "test-issuer", "test-audience", 1*time.Hour)
	require.Error(t, err)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc, err := NewTokenService(testSecret, "test-issuer", "test-audience", 1*time.Hour)
	require.NoError(t, err)

	for _, bad := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := svc.ValidateOperatorToken(bad)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q should be invalid", bad)
	}
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	svc, err := NewTokenService(testSecret, "test-issuer", "test-audience", 1*time.Millisecond)
	require.NoError(t, err)

	token, err := svc.GenerateOperatorToken(42)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = svc.ValidateOperatorToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	issuerSvc, err := NewTokenService(testSecret, "test-issuer", "test-audience", 1*time.Hour)
	require.NoError(t, err)
	otherSvc, err := NewTokenService("another-secret-key-also-32-chars-xx", "test-issuer", "test-audience", 1*time.Hour)
	require.NoError(t, err)

	token, err := issuerSvc.GenerateOperatorToken(42)
	require.NoError(t, err)

	_, err = otherSvc.ValidateOperatorToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
