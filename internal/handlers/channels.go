package handlers

import (
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
)

// ChannelHandler serves channel profile and watch history endpoints.
type ChannelHandler struct {
	Profiles ChannelProfiles
	History  WatchHistoryProvider
}

// Profile handles GET /api/v1/channels/{username} requests.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/channels/"), "/")
	if username == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "username is missing"})
		return
	}

	profile, err := h.Profiles.Profile(ctx, identity.UserID, username)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"channel": profile})
}

// WatchHistory handles GET /api/v1/users/history requests.
func (h ChannelHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	entries, err := h.History.WatchHistory(ctx, identity.UserID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"watchHistory": entries})
}
