package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
	"github.com/bucketlistapp/bucketlist-server/internal/store/sqlstore"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupStore opens a migrated SQLite store in a temp directory.
func setupStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Dialect: sqlstore.DialectSQLite,
		DSN:     filepath.Join(t.TempDir(), "test.db"),
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createProfile(t *testing.T, s store.ProfileRepository, id string) *domain.Profile {
	t.Helper()
	now := time.Now().UTC()
	p := &domain.Profile{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
		DisplayName:  id,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}
	require.NoError(t, s.CreateProfile(context.Background(), p))
	return p
}

func strPtr(s string) *string { return &s }

// mockRepository is a testify mock of store.Repository.
type mockRepository struct {
	mock.Mock
}

var _ store.Repository = (*mockRepository)(nil)

func (m *mockRepository) FindAll(ctx context.Context, filter store.ItemFilter, sort *domain.SortSpec) ([]domain.BucketItem, error) {
	args := m.Called(ctx, filter, sort)
	items, _ := args.Get(0).([]domain.BucketItem)
	return items, args.Error(1)
}

func (m *mockRepository) FindAllWithCategory(ctx context.Context, filter store.ItemFilter, sort *domain.SortSpec) ([]domain.BucketItemWithCategory, error) {
	args := m.Called(ctx, filter, sort)
	items, _ := args.Get(0).([]domain.BucketItemWithCategory)
	return items, args.Error(1)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*domain.BucketItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*domain.BucketItem)
	return item, args.Error(1)
}

func (m *mockRepository) FindByProfileID(ctx context.Context, profileID string, filter store.ItemFilter, sort *domain.SortSpec) ([]domain.BucketItem, error) {
	args := m.Called(ctx, profileID, filter, sort)
	items, _ := args.Get(0).([]domain.BucketItem)
	return items, args.Error(1)
}

func (m *mockRepository) FindPublic(ctx context.Context, filter store.ItemFilter, sort *domain.SortSpec) ([]domain.BucketItem, error) {
	args := m.Called(ctx, filter, sort)
	items, _ := args.Get(0).([]domain.BucketItem)
	return items, args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, in *domain.BucketItemInsert) (*domain.BucketItem, error) {
	args := m.Called(ctx, in)
	item, _ := args.Get(0).(*domain.BucketItem)
	return item, args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id, profileID string, patch *domain.BucketItemUpdate) (*domain.BucketItem, error) {
	args := m.Called(ctx, id, profileID, patch)
	item, _ := args.Get(0).(*domain.BucketItem)
	return item, args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id, profileID string) error {
	return m.Called(ctx, id, profileID).Error(0)
}

func (m *mockRepository) FindAllCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]domain.Category)
	return cats, args.Error(1)
}

func (m *mockRepository) FindCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	args := m.Called(ctx, id)
	cat, _ := args.Get(0).(*domain.Category)
	return cat, args.Error(1)
}

func (m *mockRepository) GetUserStats(ctx context.Context, profileID string) (*domain.UserBucketStats, error) {
	args := m.Called(ctx, profileID)
	stats, _ := args.Get(0).(*domain.UserBucketStats)
	return stats, args.Error(1)
}

// mockProfiles is a testify mock of store.ProfileRepository.
type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) CreateProfile(ctx context.Context, p *domain.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProfiles) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*domain.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
