package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// SubscriptionRepository defines data access for subscription edges. Counts
// are always derived from the edges; nothing here maintains stored counters.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	CountForChannel(ctx context.Context, channelID string) (int, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}
