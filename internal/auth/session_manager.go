package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// CredentialStore is the persistence contract the session manager requires.
// The session manager is the only writer of the refresh-token field, and
// Register/ChangePassword are the only writers of the password field.
type CredentialStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	SetPassword(ctx context.Context, id, digest string) error
	SetAvatar(ctx context.Context, id, url string) (models.User, error)
	SetCoverImage(ctx context.Context, id, url string) (models.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken replaces the stored refresh token only when the
	// stored value still equals current. A mismatch returns
	// repositories.ErrNotFound, which callers map to ErrUnauthorized.
	RotateRefreshToken(ctx context.Context, id, current, next string) error
}

// RegisterInput carries the fields required to create an account. Avatar is
// the already-uploaded asset reference; performing the upload is the caller's
// responsibility.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     string
	CoverImage string
}

// Manager orchestrates the session and credential lifecycle on top of the
// credential store, the token issuer, and the password hasher.
type Manager struct {
	users  CredentialStore
	tokens *TokenIssuer
	hasher *Hasher
}

// NewManager constructs a session manager.
func NewManager(users CredentialStore, tokens *TokenIssuer, hasher *Hasher) *Manager {
	if users == nil || tokens == nil || hasher == nil {
		panic("auth: manager dependencies must not be nil")
	}
	return &Manager{users: users, tokens: tokens, hasher: hasher}
}

// Register creates a new account with a hashed password. The returned user is
// sanitized.
func (m *Manager) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(input.Password) == "" {
		return models.User{}, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if strings.TrimSpace(input.Avatar) == "" {
		return models.User{}, fmt.Errorf("%w: avatar is required", ErrValidation)
	}

	if _, err := m.users.FindByUsername(ctx, username); err == nil {
		return models.User{}, repositories.ErrConflict
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, err
	}
	if _, err := m.users.FindByEmail(ctx, email); err == nil {
		return models.User{}, repositories.ErrConflict
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, err
	}

	digest, err := m.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   digest,
		Avatar:     strings.TrimSpace(input.Avatar),
		CoverImage: strings.TrimSpace(input.CoverImage),
	}

	if err := m.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID, "username", user.Username)
	return user.Sanitized(), nil
}

// Login authenticates by username or email and issues a fresh token pair.
// Persisting the refresh token is the revocation point for any previously
// issued refresh token.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("%w: username or email is required", ErrValidation)
	}

	user, err := m.users.FindByUsername(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = m.users.FindByEmail(ctx, identifier)
	}
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	if !m.hasher.Verify(password, user.Password) {
		return models.User{}, models.SessionTokens{}, fmt.Errorf("%w: password mismatch", ErrUnauthorized)
	}

	tokens, err := m.issue(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	logging.FromContext(ctx).Info("user logged in", "userId", user.ID)
	return user.Sanitized(), tokens, nil
}

// Logout clears the stored refresh token. Calling it twice is not an error.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.users.SetRefreshToken(ctx, userID, ""); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return nil
}

// Refresh exchanges a live refresh token for a new token pair, rotating the
// stored value. A superseded, cleared, or tampered token fails with
// ErrUnauthorized; under concurrent refreshes with the same token exactly one
// call wins the rotation.
func (m *Manager) Refresh(ctx context.Context, incoming string) (models.SessionTokens, error) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return models.SessionTokens{}, fmt.Errorf("%w: refresh token is required", ErrUnauthorized)
	}

	claims, err := m.tokens.VerifyRefresh(incoming)
	if err != nil {
		logging.FromContext(ctx).Warn("refresh token rejected", "error", err)
		return models.SessionTokens{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user, err := m.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if user.RefreshToken != incoming {
		return models.SessionTokens{}, fmt.Errorf("%w: refresh token superseded", ErrUnauthorized)
	}

	accessToken, accessExpiry, err := m.tokens.IssueAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refreshToken, refreshExpiry, err := m.tokens.IssueRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.RotateRefreshToken(ctx, user.ID, incoming, refreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, fmt.Errorf("%w: refresh token superseded", ErrUnauthorized)
		}
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// ChangePassword re-hashes and stores a new password after verifying the old
// one. Existing sessions remain valid until natural expiry or logout.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", ErrValidation)
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !m.hasher.Verify(oldPassword, user.Password) {
		return fmt.Errorf("%w: password mismatch", ErrUnauthorized)
	}

	digest, err := m.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	return m.users.SetPassword(ctx, userID, digest)
}

// CurrentUser returns the sanitized authenticated identity.
func (m *Manager) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

// UpdateProfile updates full name and email. Password, avatar, and cover
// image are untouched; in particular no re-hash ever happens here.
func (m *Manager) UpdateProfile(ctx context.Context, userID, fullName, email string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return models.User{}, fmt.Errorf("%w: full name and email are required", ErrValidation)
	}

	user, err := m.users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

// UpdateAvatar replaces the avatar reference with an already-uploaded one.
func (m *Manager) UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error) {
	avatarURL = strings.TrimSpace(avatarURL)
	if avatarURL == "" {
		return models.User{}, fmt.Errorf("%w: avatar reference is required", ErrValidation)
	}

	user, err := m.users.SetAvatar(ctx, userID, avatarURL)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

// UpdateCoverImage replaces the cover image reference.
func (m *Manager) UpdateCoverImage(ctx context.Context, userID, coverURL string) (models.User, error) {
	coverURL = strings.TrimSpace(coverURL)
	if coverURL == "" {
		return models.User{}, fmt.Errorf("%w: cover image reference is required", ErrValidation)
	}

	user, err := m.users.SetCoverImage(ctx, userID, coverURL)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

func (m *Manager) issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	accessToken, accessExpiry, err := m.tokens.IssueAccess(user)
	if err != nil {
		return models.SessionTokens{}, err
	}
	refreshToken, refreshExpiry, err := m.tokens.IssueRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return models.SessionTokens{}, err
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}
