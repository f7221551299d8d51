package handlers

import (
	"context"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/uploads"
)

// SessionService captures the session and credential lifecycle operations
// required by the auth handlers.
type SessionService interface {
	Register(ctx context.Context, input auth.RegisterInput) (models.User, error)
	Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverURL string) (models.User, error)
}

// AssetUploader streams received files to the external upload collaborator.
type AssetUploader interface {
	Upload(ctx context.Context, in uploads.Input) (uploads.Result, error)
}

// ChannelProfiles answers relationship-graph queries for channel pages.
type ChannelProfiles interface {
	Profile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error)
}

// WatchHistoryProvider resolves a user's denormalized watch history.
type WatchHistoryProvider interface {
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// HistoryRecorder appends watched videos to a user's history list.
type HistoryRecorder interface {
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// SubscriptionStore captures edge creation and removal for the subscription
// endpoints.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}

// VideoPublisher schedules a new video with background asset persistence.
type VideoPublisher interface {
	Publish(ctx context.Context, ownerID, title, description string, file uploads.SingleFile, thumbnail *uploads.SingleFile) (models.Video, error)
}

// VideoFeed lists videos from subscribed channels.
type VideoFeed interface {
	ListFeed(ctx context.Context, userID string) ([]models.Video, error)
}
