package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// UserRepository defines the data access contract for user records, including
// the user-owned watch history reference list.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	SetPassword(ctx context.Context, id, digest string) error
	SetAvatar(ctx context.Context, id, url string) (models.User, error)
	SetCoverImage(ctx context.Context, id, url string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	RotateRefreshToken(ctx context.Context, id, current, next string) error

	AppendWatchHistory(ctx context.Context, userID, videoID string) error
	WatchHistoryRefs(ctx context.Context, userID string) ([]string, error)
}
