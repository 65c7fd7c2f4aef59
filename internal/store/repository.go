// Package store defines the persistence contracts of the bucket list server.
//
// Implementations translate driver failures into the tagged errors of
// internal/errors before returning; callers never inspect driver messages.
package store

import (
	"context"
	"time"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

// ItemFilter narrows item queries. Nil fields are ignored.
type ItemFilter struct {
	ProfileID  *string
	CategoryID *int64
	Priority   *domain.Priority
	Status     *domain.Status
	IsPublic   *bool
	Search     *string
}

// ItemRepository persists bucket items.
type ItemRepository interface {
	FindAll(ctx context.Context, filter ItemFilter, sort *domain.SortSpec) ([]domain.BucketItem, error)
	FindAllWithCategory(ctx context.Context, filter ItemFilter, sort *domain.SortSpec) ([]domain.BucketItemWithCategory, error)
	FindByID(ctx context.Context, id string) (*domain.BucketItem, error)
	FindByProfileID(ctx context.Context, profileID string, filter ItemFilter, sort *domain.SortSpec) ([]domain.BucketItem, error)
	FindPublic(ctx context.Context, filter ItemFilter, sort *domain.SortSpec) ([]domain.BucketItem, error)
	Create(ctx context.Context, in *domain.BucketItemInsert) (*domain.BucketItem, error)

	// Update applies patch only if the item belongs to profileID and is not
	// completed. It returns a NotFoundError when no such owned item exists and
	// a BusinessRuleError when the item is already completed.
	Update(ctx context.Context, id, profileID string, patch *domain.BucketItemUpdate) (*domain.BucketItem, error)
	Delete(ctx context.Context, id, profileID string) error
}

// CategoryRepository reads categories.
type CategoryRepository interface {
	FindAllCategories(ctx context.Context) ([]domain.Category, error)
	FindCategoryByID(ctx context.Context, id int64) (*domain.Category, error)
}

// CategorySeeder installs or refreshes categories. Used by operators only.
type CategorySeeder interface {
	UpsertCategories(ctx context.Context, categories []domain.Category) (int, error)
}

// StatsRepository reads precomputed aggregates.
type StatsRepository interface {
	GetUserStats(ctx context.Context, profileID string) (*domain.UserBucketStats, error)
}

// Repository is everything the bucket list service needs.
type Repository interface {
	ItemRepository
	CategoryRepository
	StatsRepository
}

// ProfileRepository persists accounts.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// SessionRepository persists refresh-token sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

// AuthStore is the persistence needed by authentication.
type AuthStore interface {
	ProfileRepository
	SessionRepository
}

// ItemIndexer mirrors item writes into a secondary index.
type ItemIndexer interface {
	IndexItem(ctx context.Context, item *domain.BucketItem) error
	DeleteItem(ctx context.Context, id string) error
}

// NoopItemIndexer is a no-op implementation for testing.
type NoopItemIndexer struct{}

// IndexItem is a no-op.
func (NoopItemIndexer) IndexItem(context.Context, *domain.BucketItem) error { return nil }

// DeleteItem is a no-op.
func (NoopItemIndexer) DeleteItem(context.Context, string) error { return nil }
