package models

import "time"

// User represents an account within the ClipStream platform. Password holds
// only the bcrypt digest and RefreshToken holds the single live refresh token
// for the account; both are cleared before a user ever leaves the service
// layer.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Password     string
	Avatar       string
	CoverImage   string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy of the user with credential fields removed.
func (u User) Sanitized() User {
	u.Password = ""
	u.RefreshToken = ""
	return u
}

// Subscription is a directed edge: SubscriberID follows ChannelID. Both ends
// reference users.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Video stores a published video along with the state of its uploaded asset.
type Video struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Thumbnail   string
	AssetURL    string
	AssetStatus string
	AssetSize   int64
	CreatedAt   time.Time
}

const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ChannelProfile is the fixed projection returned for a channel page. The
// counts are derived from subscription edges at query time, never stored.
type ChannelProfile struct {
	FullName          string `json:"fullName"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	SubscribersCount  int    `json:"subscribersCount"`
	SubscribedToCount int    `json:"channelSubscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage"`
}

// VideoOwner is the restricted owner projection attached to watch history
// entries.
type VideoOwner struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// WatchHistoryEntry is a watched video resolved to a full snapshot with its
// owner projected onto it.
type WatchHistoryEntry struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	AssetURL    string     `json:"videoFile"`
	Owner       VideoOwner `json:"owner"`
	CreatedAt   time.Time  `json:"createdAt"`
}
