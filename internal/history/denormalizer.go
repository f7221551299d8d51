// Package history resolves a user's ordered watch-history reference list into
// full video snapshots with a restricted owner projection attached.
package history

import (
	"context"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// RefLister returns a user's ordered video references, duplicates included.
type RefLister interface {
	WatchHistoryRefs(ctx context.Context, userID string) ([]string, error)
}

// SnapshotResolver batch-resolves video ids to denormalized snapshots.
// Unresolvable ids are simply absent from the returned map.
type SnapshotResolver interface {
	FindWithOwners(ctx context.Context, ids []string) (map[string]models.WatchHistoryEntry, error)
}

// Denormalizer joins the reference list against video snapshots in-process.
type Denormalizer struct {
	users  RefLister
	videos SnapshotResolver
}

// NewDenormalizer constructs a watch-history denormalizer.
func NewDenormalizer(users RefLister, videos SnapshotResolver) *Denormalizer {
	if users == nil || videos == nil {
		panic("history: denormalizer dependencies must not be nil")
	}
	return &Denormalizer{users: users, videos: videos}
}

// WatchHistory returns the user's history in stored order. References to
// videos that no longer resolve are dropped silently; a dangling pointer is a
// documented tolerance here, not an error.
func (d *Denormalizer) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	refs, err := d.users.WatchHistoryRefs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []models.WatchHistoryEntry{}, nil
	}

	snapshots, err := d.videos.FindWithOwners(ctx, dedupe(refs))
	if err != nil {
		return nil, err
	}

	entries := make([]models.WatchHistoryEntry, 0, len(refs))
	dropped := 0
	for _, ref := range refs {
		entry, ok := snapshots[ref]
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}

	if dropped > 0 {
		logging.FromContext(ctx).Debug("dropped dangling watch history refs", "userId", userID, "dropped", dropped)
	}

	return entries, nil
}

func dedupe(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	return out
}
