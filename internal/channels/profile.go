// Package channels answers relationship-graph queries over subscription
// edges. Counts are derived per query rather than stored, so edge creation
// never has to dual-write a counter.
package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
)

// UserFinder resolves a channel identity by its case-normalized username.
type UserFinder interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// EdgeQuerier exposes the subscription-edge queries the engine composes.
type EdgeQuerier interface {
	CountForChannel(ctx context.Context, channelID string) (int, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// Engine computes channel profiles by composing the identity lookup with
// edge-count and edge-membership queries.
type Engine struct {
	users UserFinder
	edges EdgeQuerier
}

// NewEngine constructs a channel profile engine.
func NewEngine(users UserFinder, edges EdgeQuerier) *Engine {
	if users == nil || edges == nil {
		panic("channels: engine dependencies must not be nil")
	}
	return &Engine{users: users, edges: edges}
}

// Profile resolves the channel named by username and derives its aggregate
// relationship counts plus the viewer-relative subscription flag. The output
// carries only the fixed projection; credentials never leave this path.
func (e *Engine) Profile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, fmt.Errorf("%w: username is required", auth.ErrValidation)
	}

	channel, err := e.users.FindByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, err
	}

	subscribers, err := e.edges.CountForChannel(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscribers: %w", err)
	}

	subscribedTo, err := e.edges.CountForSubscriber(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("count subscriptions: %w", err)
	}

	// A direct existence check on the (viewer, channel) pair is equivalent to
	// scanning the channel's materialized subscriber list for the viewer.
	var isSubscribed bool
	if viewerID != "" {
		isSubscribed, err = e.edges.Exists(ctx, viewerID, channel.ID)
		if err != nil {
			return models.ChannelProfile{}, fmt.Errorf("check viewer subscription: %w", err)
		}
	}

	return models.ChannelProfile{
		FullName:          channel.FullName,
		Username:          channel.Username,
		Email:             channel.Email,
		SubscribersCount:  subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
		Avatar:            channel.Avatar,
		CoverImage:        channel.CoverImage,
	}, nil
}
