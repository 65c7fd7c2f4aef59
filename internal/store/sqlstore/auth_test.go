package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

func TestCreateProfile_DuplicateEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, &domain.Profile{ID: "p1", Email: "Ann@Example.com", PasswordHash: "h"}))

	err := s.CreateProfile(ctx, &domain.Profile{ID: "p2", Email: "ann@example.com ", PasswordHash: "h"})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestGetProfileByEmail_IgnoresCase(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, &domain.Profile{ID: "p1", Email: "ann@example.com", PasswordHash: "h", DisplayName: "Ann"}))

	p, err := s.GetProfileByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "h", p.PasswordHash)
	assert.True(t, p.LastLoginAt.IsZero())

	_, err = s.GetProfileByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTouchLastLogin(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "u1")

	at := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	require.NoError(t, s.TouchLastLogin(ctx, "u1", at))

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, at.Equal(p.LastLoginAt))

	assert.ErrorIs(t, s.TouchLastLogin(ctx, "ghost", at), domainerrors.ErrNotFound)
}

func newTestSession(id, profileID, hash string, expires time.Time) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:               id,
		ProfileID:        profileID,
		RefreshTokenHash: hash,
		ExpiresAt:        expires,
		CreatedAt:        now,
		LastSeenAt:       now,
		UserAgent:        "test-agent",
	}
}

func TestSessions_Lifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "u1")

	session := newTestSession("s1", "u1", "hash-1", time.Now().Add(time.Hour))
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSessionByRefreshToken(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "u1", got.ProfileID)
	assert.Equal(t, "test-agent", got.UserAgent)
	assert.Empty(t, got.IPAddress)

	got.RefreshTokenHash = "hash-2"
	got.ExpiresAt = time.Now().Add(2 * time.Hour)
	require.NoError(t, s.UpdateSession(ctx, got))

	_, err = s.GetSessionByRefreshToken(ctx, "hash-1")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	rotated, err := s.GetSessionByRefreshToken(ctx, "hash-2")
	require.NoError(t, err)
	assert.Equal(t, "s1", rotated.ID)

	require.NoError(t, s.DeleteSession(ctx, "s1"))
	require.NoError(t, s.DeleteSession(ctx, "s1"))
	_, err = s.GetSessionByRefreshToken(ctx, "hash-2")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCreateSession_Duplicate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "u1")

	session := newTestSession("s1", "u1", "hash-1", time.Now().Add(time.Hour))
	require.NoError(t, s.CreateSession(ctx, session))
	assert.ErrorIs(t, s.CreateSession(ctx, session), domainerrors.ErrAlreadyExists)
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "u1")

	now := time.Now().UTC()
	require.NoError(t, s.CreateSession(ctx, newTestSession("old", "u1", "h-old", now.Add(-time.Hour))))
	require.NoError(t, s.CreateSession(ctx, newTestSession("new", "u1", "h-new", now.Add(time.Hour))))

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetSessionByRefreshToken(ctx, "h-new")
	assert.NoError(t, err)
	_, err = s.GetSessionByRefreshToken(ctx, "h-old")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
