package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/clipstream/backend/internal/models"
)

// MemoryUserRepository implements UserRepository for tests and local
// development. All operations, including refresh-token rotation, are guarded
// by a single mutex so the compare-and-swap semantics match the SQL store.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
	// history keeps each user's ordered video reference list, duplicates allowed.
	history map[string][]string
}

// NewMemoryUserRepository returns an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[string]models.User),
		history: make(map[string][]string),
	}
}

// Create persists a new user record.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrConflict
		}
	}
	if _, ok := r.users[user.ID]; ok {
		return ErrConflict
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.users[user.ID] = user
	return nil
}

// FindByID fetches a user by identifier.
func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindByUsername fetches a user by username.
func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Username == username })
}

// FindByEmail fetches a user by email.
func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) findBy(match func(models.User) bool) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// UpdateProfile updates full name and email.
func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id, fullName, email string) (models.User, error) {
	return r.mutate(id, func(u *models.User) {
		u.FullName = fullName
		u.Email = email
	})
}

// SetPassword stores a new password digest.
func (r *MemoryUserRepository) SetPassword(_ context.Context, id, digest string) error {
	_, err := r.mutate(id, func(u *models.User) { u.Password = digest })
	return err
}

// SetAvatar replaces the avatar reference.
func (r *MemoryUserRepository) SetAvatar(_ context.Context, id, url string) (models.User, error) {
	return r.mutate(id, func(u *models.User) { u.Avatar = url })
}

// SetCoverImage replaces the cover image reference.
func (r *MemoryUserRepository) SetCoverImage(_ context.Context, id, url string) (models.User, error) {
	return r.mutate(id, func(u *models.User) { u.CoverImage = url })
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
func (r *MemoryUserRepository) SetRefreshToken(_ context.Context, id, token string) error {
	_, err := r.mutate(id, func(u *models.User) { u.RefreshToken = token })
	return err
}

// RotateRefreshToken swaps the stored refresh token only when it still equals
// current.
func (r *MemoryUserRepository) RotateRefreshToken(_ context.Context, id, current, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.RefreshToken != current {
		return ErrNotFound
	}

	user.RefreshToken = next
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

// AppendWatchHistory appends a video reference to the user's ordered history.
func (r *MemoryUserRepository) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return ErrNotFound
	}
	r.history[userID] = append(r.history[userID], videoID)
	return nil
}

// WatchHistoryRefs returns the user's history references in watch order.
func (r *MemoryUserRepository) WatchHistoryRefs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs := r.history[userID]
	out := make([]string, len(refs))
	copy(out, refs)
	return out, nil
}

func (r *MemoryUserRepository) mutate(id string, apply func(*models.User)) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}

	apply(&user)
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return user, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
