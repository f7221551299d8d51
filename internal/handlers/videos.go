package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/uploads"
)

// VideoHandler serves video publishing, watch recording, and feed endpoints.
type VideoHandler struct {
	Publisher VideoPublisher
	Feed      VideoFeed
	History   HistoryRecorder
	UploadDir string
}

// Publish handles POST /api/v1/videos requests. The video file is queued for
// background ingestion; the response carries the pending record.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	videoPath, err := receiveFile(r, "videoFile", h.UploadDir)
	if err != nil || videoPath == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "video file is required"})
		return
	}

	var thumbnail *uploads.SingleFile
	thumbPath, err := receiveFile(r, "thumbnail", h.UploadDir)
	if err != nil {
		os.Remove(videoPath)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid thumbnail file"})
		return
	}
	if thumbPath != "" {
		defer os.Remove(thumbPath)
		thumbnail = &uploads.SingleFile{Field: "thumbnail", Path: thumbPath}
	}

	video, err := h.Publisher.Publish(ctx, identity.UserID, title, r.FormValue("description"),
		uploads.SingleFile{Field: "videoFile", Path: videoPath}, thumbnail)
	if err != nil {
		os.Remove(videoPath)
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusAccepted, map[string]any{"video": video})
}

type watchRequest struct {
	VideoID string `json:"videoId"`
}

// RecordWatch handles POST /api/v1/videos/watch requests, appending to the
// caller's watch history. Duplicate entries are intentional.
func (h VideoHandler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.VideoID) == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "videoId is required"})
		return
	}

	if err := h.History.AppendWatchHistory(ctx, identity.UserID, req.VideoID); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// ListFeed handles GET /api/v1/videos/feed requests.
func (h VideoHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
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

	feed, err := h.Feed.ListFeed(ctx, identity.UserID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": feed})
}
