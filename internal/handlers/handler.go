package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Mseunghwan/NoSmoke/internal/companion"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

// pinger is any backend with a liveness probe. The Redis queue exposes one;
// the in-memory queue does not and Health reports it as in-process.
type pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	svc   *companion.Service
	store store.Store
	queue queue.Queue
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(svc *companion.Service, st store.Store, q queue.Queue) *Handler {
	return &Handler{svc: svc, store: st, queue: q}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// userIDParam parses the {userId} route parameter.
func userIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
