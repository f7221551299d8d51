package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
)

// SubscriptionHandler creates and removes subscription edges. Aggregate
// counts are never maintained here; the channel profile engine derives them.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

type subscriptionRequest struct {
	ChannelID string `json:"channelId"`
}

// Subscribe handles POST /api/v1/subscriptions requests.
func (h SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
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

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "channelId is required"})
		return
	}
	if channelID == identity.UserID {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "cannot subscribe to yourself"})
		return
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: identity.UserID,
		ChannelID:    channelID,
	}
	if err := h.Subscriptions.Create(ctx, sub); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, map[string]string{"status": "subscribed"})
}

// Unsubscribe handles DELETE /api/v1/subscriptions requests.
func (h SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		respondJSON(ctx, w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "channelId is required"})
		return
	}

	if err := h.Subscriptions.Delete(ctx, identity.UserID, channelID); err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}
