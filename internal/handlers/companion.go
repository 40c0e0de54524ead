package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

// maxMessageLen bounds a single chat message.
const maxMessageLen = 2000

// ChatRequest represents the chat request body.
type ChatRequest struct {
	Message string `json:"message"`
}

// AckResponse carries the fixed synchronous acknowledgement. The AI's actual
// answer arrives later over the channel topic or via the message listing.
type AckResponse struct {
	Ack string `json:"ack"`
}

// MessagesResponse represents a page of dialogue history.
type MessagesResponse struct {
	Items   []models.Message `json:"items"`
	HasMore bool             `json:"has_more"`
}

// Chat handles POST /api/companion/chat/{userId}. Returns 202 with the fixed
// acknowledgement; never waits for inference.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		h.Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLen {
		h.Error(w, http.StatusUnprocessableEntity, "message too long (max 2000 bytes)")
		return
	}

	ack, err := h.svc.Chat(r.Context(), userID, req.Message)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusAccepted, AckResponse{Ack: ack})
}

// Analyze handles POST /api/companion/analysis/{userId}. Users without quit
// data get the canned reply synchronously with 200; otherwise a job is
// queued and 202 is returned.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	reply, queued, err := h.svc.Analyze(r.Context(), userID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	status := http.StatusOK
	if queued {
		status = http.StatusAccepted
	}
	h.JSON(w, status, AckResponse{Ack: reply})
}

// Messages handles GET /api/companion/messages/{userId}. Keyset cursor:
// `before` is a unix-millisecond timestamp, `before_id` the id of the last
// message on the previous page.
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		h.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}

	var cursor store.Cursor
	if v := r.URL.Query().Get("before"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid before cursor")
			return
		}
		cursor.Before = time.UnixMilli(ms).UTC()
	}
	if v := r.URL.Query().Get("before_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.Error(w, http.StatusBadRequest, "invalid before_id cursor")
			return
		}
		cursor.BeforeID = id
	}

	items, hasMore, err := h.svc.ListMessages(r.Context(), userID, cursor, limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, MessagesResponse{Items: items, HasMore: hasMore})
}

// serviceError maps pipeline errors onto HTTP statuses. Unknown user and
// broker-unreachable both happen before any job is queued, so the caller may
// correct or retry the request.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		h.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, queue.ErrPublish):
		h.Error(w, http.StatusServiceUnavailable, "queue unavailable, retry later")
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}
