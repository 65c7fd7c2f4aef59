package sqlstore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// setupTestStore opens a migrated SQLite store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(context.Background(), Config{Dialect: DialectSQLite, DSN: dbPath}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestProfile(t *testing.T, s *Store, profileID string) *domain.Profile {
	t.Helper()

	p := &domain.Profile{
		ID:           profileID,
		Email:        profileID + "@example.com",
		PasswordHash: "hash",
		DisplayName:  "User " + profileID,
	}
	require.NoError(t, s.CreateProfile(context.Background(), p))
	return p
}

// recordingIndexer remembers what the store mirrored into it.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (r *recordingIndexer) IndexItem(_ context.Context, item *domain.BucketItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, item.ID)
	return nil
}

func (r *recordingIndexer) DeleteItem(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func TestOpen_MigratesAndSeeds(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)

	categories, err := s.FindAllCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, len(domain.DefaultCategories))
	assert.Equal(t, int64(1), categories[0].ID)
	assert.Equal(t, "旅行・観光", categories[0].Name)
	assert.False(t, categories[0].CreatedAt.IsZero())
}

func TestMigrate_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	version, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	ctx := context.Background()

	s, err := Open(ctx, Config{DSN: dbPath}, nil)
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, s.Dialect())
	createTestProfile(t, s, "u1")
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{DSN: dbPath}, nil)
	require.NoError(t, err)
	defer s.Close()

	p, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "User u1", p.DisplayName)
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), Config{Dialect: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestFormatTime_LexicalOrder(t *testing.T) {
	a := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	b := a.Add(time.Nanosecond)
	assert.Less(t, formatTime(a), formatTime(b))

	parsed, err := parseTime(formatTime(a))
	require.NoError(t, err)
	assert.True(t, a.Equal(parsed))
}
