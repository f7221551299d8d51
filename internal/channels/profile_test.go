package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

type fakeUserFinder struct {
	users map[string]models.User
}

func (f fakeUserFinder) FindByUsername(_ context.Context, username string) (models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

type fakeEdges struct {
	// edges maps subscriber id to the channel ids they follow.
	edges map[string][]string
}

func (f fakeEdges) CountForChannel(_ context.Context, channelID string) (int, error) {
	count := 0
	for _, channels := range f.edges {
		for _, id := range channels {
			if id == channelID {
				count++
			}
		}
	}
	return count, nil
}

func (f fakeEdges) CountForSubscriber(_ context.Context, subscriberID string) (int, error) {
	return len(f.edges[subscriberID]), nil
}

func (f fakeEdges) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	for _, id := range f.edges[subscriberID] {
		if id == channelID {
			return true, nil
		}
	}
	return false, nil
}

func testEngine() *Engine {
	users := fakeUserFinder{users: map[string]models.User{
		"alice": {
			ID:         "chan-1",
			Username:   "alice",
			Email:      "alice@example.com",
			FullName:   "Alice Example",
			Password:   "digest",
			Avatar:     "https://cdn.example.com/a.png",
			CoverImage: "https://cdn.example.com/c.png",
		},
	}}
	edges := fakeEdges{edges: map[string][]string{
		"viewer-1": {"chan-1"},
		"viewer-2": {"chan-1"},
		"viewer-3": {"chan-1"},
		"chan-1":   {"chan-9"},
	}}
	return NewEngine(users, edges)
}

func TestEngineProfileCountsAndViewerFlag(t *testing.T) {
	engine := testEngine()

	profile, err := engine.Profile(context.Background(), "viewer-2", "alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}

	if profile.SubscribersCount != 3 {
		t.Fatalf("expected 3 subscribers got %d", profile.SubscribersCount)
	}
	if profile.SubscribedToCount != 1 {
		t.Fatalf("expected 1 outgoing subscription got %d", profile.SubscribedToCount)
	}
	if !profile.IsSubscribed {
		t.Fatal("expected viewer-2 to be marked subscribed")
	}
	if profile.FullName != "Alice Example" || profile.Username != "alice" {
		t.Fatalf("unexpected identity fields %+v", profile)
	}
}

func TestEngineProfileNonSubscribedViewer(t *testing.T) {
	engine := testEngine()

	profile, err := engine.Profile(context.Background(), "stranger", "alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("expected stranger not to be marked subscribed")
	}
}

func TestEngineProfileAnonymousViewer(t *testing.T) {
	engine := testEngine()

	profile, err := engine.Profile(context.Background(), "", "alice")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("anonymous viewers are never subscribed")
	}
}

func TestEngineProfileNormalizesUsername(t *testing.T) {
	engine := testEngine()

	if _, err := engine.Profile(context.Background(), "", "  ALICE "); err != nil {
		t.Fatalf("profile with unnormalized username: %v", err)
	}
}

func TestEngineProfileUnknownChannel(t *testing.T) {
	engine := testEngine()

	if _, err := engine.Profile(context.Background(), "", "ghost"); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestEngineProfileEmptyUsername(t *testing.T) {
	engine := testEngine()

	// Must surface as a validation error so callers map it to a client error.
	if _, err := engine.Profile(context.Background(), "", "  "); !errors.Is(err, auth.ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}
