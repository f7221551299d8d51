package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// VideoRepository exposes data access for published videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindWithOwners(ctx context.Context, ids []string) (map[string]models.WatchHistoryEntry, error)
	ListFeed(ctx context.Context, userID string) ([]models.Video, error)
	MarkAssetReady(ctx context.Context, videoID, location string, size int64) error
	MarkAssetFailed(ctx context.Context, videoID string) error
}
