package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bucketlistapp/bucketlist-server/internal/bucketlist"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

// GetUserStats reads the user_bucket_stats view for profileID.
func (s *Store) GetUserStats(ctx context.Context, profileID string) (*domain.UserBucketStats, error) {
	var stats domain.UserBucketStats
	err := s.db.GetContext(ctx, &stats, s.db.Rebind(`
		SELECT profile_id, display_name, total_items, completed_items, in_progress_items, not_started_items
		FROM user_bucket_stats
		WHERE profile_id = ?`), profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.NotFound("profile", profileID)
		}
		return nil, translate(err, "get_user_stats")
	}
	stats.CompletionRate = bucketlist.CompletionRate(stats.CompletedItems, stats.TotalItems)
	return &stats, nil
}
