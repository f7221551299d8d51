package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/db"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	Pool db.Pool
}

// Handle implements GET /healthz. When a pool is configured the handler
// verifies a connection can be acquired before reporting healthy.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.Pool != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		conn, err := h.Pool.Acquire(ctx)
		if err != nil {
			respondJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		conn.Release()
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
