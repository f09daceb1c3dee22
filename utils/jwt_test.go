package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compressd/models"
)

var testSecret = []byte("unit-test-secret")

func issue(t *testing.T, claims *models.AuthClaims, key []byte) string {
	t.Helper()
	token, err := CreateToken(claims, key)
	require.NoError(t, err)
	return token
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	token := issue(t, &models.AuthClaims{
		Issuer:    "compressd",
		Subject:   "bot-7",
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	claims, err := VerifyToken(token, VerifyConfig{SecretKey: testSecret})
	require.NoError(t, err)
	assert.Equal(t, "compressd", claims.Issuer)
	assert.Equal(t, "bot-7", claims.Subject)
}

func TestVerifyTokenEmptyAndGarbage(t *testing.T) {
	_, err := VerifyToken("", VerifyConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyToken("not.a.jwt", VerifyConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenWrongKey(t *testing.T) {
	token := issue(t, &models.AuthClaims{Subject: "bot"}, []byte("some-other-secret"))
	_, err := VerifyToken(token, VerifyConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyTokenExpired(t *testing.T) {
	token := issue(t, &models.AuthClaims{
		Subject:   "bot",
		IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, testSecret)

	_, err := VerifyToken(token, VerifyConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrTokenExpired)

	// generous clock skew rescues a token expired moments ago
	fresh := issue(t, &models.AuthClaims{
		Subject:   "bot",
		ExpiresAt: time.Now().Add(-5 * time.Second).Unix(),
	}, testSecret)
	_, err = VerifyToken(fresh, VerifyConfig{SecretKey: testSecret, ClockSkew: time.Minute})
	assert.NoError(t, err)
}

func TestVerifyTokenNotYetValid(t *testing.T) {
	token := issue(t, &models.AuthClaims{
		Subject:   "bot",
		IssuedAt:  time.Now().Add(time.Hour).Unix(),
		ExpiresAt: time.Now().Add(2 * time.Hour).Unix(),
	}, testSecret)

	_, err := VerifyToken(token, VerifyConfig{SecretKey: testSecret})
	assert.ErrorIs(t, err, ErrTokenNotYetValid)
}

func TestVerifyTokenIssuerCheck(t *testing.T) {
	token := issue(t, &models.AuthClaims{
		Issuer:    "someone-else",
		Subject:   "bot",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	_, err := VerifyToken(token, VerifyConfig{SecretKey: testSecret, ExpectedIssuer: "compressd"})
	assert.ErrorIs(t, err, ErrInvalidIssuer)

	_, err = VerifyToken(token, VerifyConfig{SecretKey: testSecret, ExpectedIssuer: "someone-else"})
	assert.NoError(t, err)
}

func TestVerifyTokenNoKey(t *testing.T) {
	token := issue(t, &models.AuthClaims{Subject: "bot"}, testSecret)
	_, err := VerifyToken(token, VerifyConfig{})
	assert.Error(t, err)
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(6)
	require.NoError(t, err)
	assert.Len(t, a, 12)

	b, err := RandomHex(6)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
