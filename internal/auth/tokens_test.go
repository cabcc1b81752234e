package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftlog/driftlog-server/internal/domain"
)

func testKeyHex(t *testing.T) string {
	t.Helper()
	b := make([]byte, 32)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return hex.EncodeToString(b)
}

func TestNewTokenService_RejectsBadKeys(t *testing.T) {
	_, err := NewTokenService("too-short", time.Minute, time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32), time.Minute, time.Hour)
	assert.Error(t, err, "non-hex key must be rejected")
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc, err := NewTokenService(testKeyHex(t), 15*time.Minute, time.Hour)
	require.NoError(t, err)

	user := &domain.User{
		Syncable: domain.Syncable{ID: "user-abc"},
		Email:    "mara@example.com",
	}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-abc", claims.UserID)
	assert.Equal(t, "mara@example.com", claims.Email)
	assert.Equal(t, "user-abc", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.Expiration, time.Minute)
}

func TestAccessToken_ExpiredFails(t *testing.T) {
	svc, err := NewTokenService(testKeyHex(t), -time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(&domain.User{Syncable: domain.Syncable{ID: "user-abc"}})
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongKeyFails(t *testing.T) {
	svc1, err := NewTokenService(testKeyHex(t), time.Minute, time.Hour)
	require.NoError(t, err)
	svc2, err := NewTokenService(testKeyHex(t), time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := svc1.GenerateAccessToken(&domain.User{Syncable: domain.Syncable{ID: "user-abc"}})
	require.NoError(t, err)

	_, err = svc2.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshToken_OpaqueAndHashed(t *testing.T) {
	svc, err := NewTokenService(testKeyHex(t), time.Minute, time.Hour)
	require.NoError(t, err)

	t1, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	t2, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	// Hashing is deterministic and never stores the raw token.
	h := HashRefreshToken(t1)
	assert.Equal(t, h, HashRefreshToken(t1))
	assert.NotEqual(t, h, HashRefreshToken(t2))
	assert.NotContains(t, h, t1)
	assert.Len(t, h, 64)
}

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

	ok, err := VerifyPassword(hash, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(hash, "wrong password")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPassword_Salted(t *testing.T) {
	h1, err := HashPassword("same password")
	require.NoError(t, err)
	h2, err := HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}

func TestHashPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("a", 2000))
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	ok, err := VerifyPassword("not-an-encoded-hash", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}
