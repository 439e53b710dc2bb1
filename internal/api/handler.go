package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fedskywalker/four-in-a-row/internal/room"
)

// Handler serves the operational endpoints. No game data is exposed here,
// only the live room count and process uptime.
type Handler struct {
	registry *room.Registry
	started  time.Time
}

// NewHandler creates the health handler.
func NewHandler(registry *room.Registry) *Handler {
	return &Handler{
		registry: registry,
		started:  time.Now(),
	}
}

// Health reports live room count and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rooms":  h.registry.Count(),
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// CORSMiddleware allows cross-origin requests so browser clients can be
// served from anywhere.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
