package handlers

import (
	"net/http"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Pool: deps.Pool}
	auth := AuthHandler{Sessions: deps.Sessions, Uploads: deps.Uploads, Limiter: deps.Limiter, UploadDir: deps.UploadDir}
	channels := ChannelHandler{Profiles: deps.Profiles, History: deps.History}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	videos := VideoHandler{Publisher: deps.Publisher, Feed: deps.Feed, History: deps.HistoryRecorder, UploadDir: deps.UploadDir}

	protect := middleware.RequireAuth(deps.Verifier)

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/users/register", auth.Register)
	mux.HandleFunc("/api/v1/users/login", auth.Login)
	mux.HandleFunc("/api/v1/users/refresh-token", auth.Refresh)
	mux.Handle("/api/v1/users/logout", protect(http.HandlerFunc(auth.Logout)))
	mux.Handle("/api/v1/users/change-password", protect(http.HandlerFunc(auth.ChangePassword)))
	mux.Handle("/api/v1/users/me", protect(http.HandlerFunc(auth.CurrentUser)))
	mux.Handle("/api/v1/users/update-account", protect(http.HandlerFunc(auth.UpdateAccount)))
	mux.Handle("/api/v1/users/avatar", protect(http.HandlerFunc(auth.UpdateAvatar)))
	mux.Handle("/api/v1/users/cover-image", protect(http.HandlerFunc(auth.UpdateCoverImage)))
	mux.Handle("/api/v1/users/history", protect(http.HandlerFunc(channels.WatchHistory)))
	mux.Handle("/api/v1/channels/", protect(http.HandlerFunc(channels.Profile)))
	mux.Handle("/api/v1/subscriptions", protect(http.HandlerFunc(subscriptions.handle)))
	mux.Handle("/api/v1/videos", protect(http.HandlerFunc(videos.Publish)))
	mux.Handle("/api/v1/videos/watch", protect(http.HandlerFunc(videos.RecordWatch)))
	mux.Handle("/api/v1/videos/feed", protect(http.HandlerFunc(videos.ListFeed)))
}

// handle dispatches subscribe/unsubscribe on method.
func (h SubscriptionHandler) handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.Subscribe(w, r)
	case http.MethodDelete:
		h.Unsubscribe(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Sessions        SessionService
	Uploads         AssetUploader
	Profiles        ChannelProfiles
	History         WatchHistoryProvider
	HistoryRecorder HistoryRecorder
	Subscriptions   SubscriptionStore
	Publisher       VideoPublisher
	Feed            VideoFeed
	Verifier        middleware.AccessVerifier
	Limiter         RateLimiter
	Pool            db.Pool
	UploadDir       string
}
