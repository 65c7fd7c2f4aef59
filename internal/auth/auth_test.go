package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// cheapParams keeps the hashing tests fast.
var cheapParams = PasswordParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPasswordWith("correct horse", cheapParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
	assert.False(t, VerifyPassword("not-a-hash", "correct horse"))
	assert.False(t, VerifyPassword(hash, strings.Repeat("x", MaxPasswordLength+1)))
}

func TestHashPassword_SaltedUniquely(t *testing.T) {
	a, err := HashPasswordWith("pw", cheapParams)
	require.NoError(t, err)
	b, err := HashPasswordWith("pw", cheapParams)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
	_, err = HashPassword(strings.Repeat("x", MaxPasswordLength+1))
	assert.Error(t, err)
}

func TestNeedsRehash(t *testing.T) {
	weak, err := HashPasswordWith("pw", cheapParams)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(weak))
	assert.True(t, NeedsRehash("garbage"))
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	key := make([]byte, keyLength)
	for i := range key {
		key[i] = byte(i)
	}
	ts, err := NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return ts
}

func TestAccessToken_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	profile := &domain.Profile{ID: "p1", Email: "ann@example.com"}

	token, err := ts.GenerateAccessToken(profile, "session-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.ProfileID)
	assert.Equal(t, "p1", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.TokenID)
}

func TestAccessToken_Expired(t *testing.T) {
	ts := newTestTokenService(t)
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issued }

	token, err := ts.GenerateAccessToken(&domain.Profile{ID: "p1"}, "s1")
	require.NoError(t, err)

	ts.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = ts.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongKey(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.GenerateAccessToken(&domain.Profile{ID: "p1"}, "s1")
	require.NoError(t, err)

	other, err := NewTokenServiceFromHex(strings.Repeat("ab", keyLength), time.Minute, time.Hour)
	require.NoError(t, err)
	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)

	_, err = ts.VerifyAccessToken("v4.local.garbage")
	assert.Error(t, err)
}

func TestNewTokenService_Rejects(t *testing.T) {
	_, err := NewTokenService(make([]byte, 16), time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenService(make([]byte, keyLength), 0, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenServiceFromHex("zz", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	ts := newTestTokenService(t)
	a, err := ts.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := ts.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
	assert.Len(t, HashRefreshToken(a), refreshTokenSize*2)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadKey_Override(t *testing.T) {
	want := make([]byte, keyLength)
	want[0] = 7

	key, err := LoadKey(hex.EncodeToString(want), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, want, key)

	_, err = LoadKey("short", t.TempDir())
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("nothex"), 0o600))
	_, err = LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
