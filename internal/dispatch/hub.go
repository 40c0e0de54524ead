package dispatch

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/metrics"
	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// Hub is the in-process Dispatcher. Subscription bookkeeping is mutated by
// many connection-lifecycle goroutines and read by the worker and the
// greeter, so all access goes through one RWMutex owned here.
type Hub struct {
	logger zerolog.Logger

	mu        sync.RWMutex
	topics    map[int64]map[string]Session // userID -> sessionID -> session
	sessions  map[string]int64             // sessionID -> userID (reverse index)
	listeners []SubscribeListener
}

// NewHub creates an empty dispatcher hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:   logger.With().Str("component", "dispatch").Logger(),
		topics:   make(map[int64]map[string]Session),
		sessions: make(map[string]int64),
	}
}

// AddSubscribeListener registers a listener for subscribe events. Must be
// called during wiring, before the hub starts receiving traffic.
func (h *Hub) AddSubscribeListener(l SubscribeListener) {
	h.listeners = append(h.listeners, l)
}

// Subscribe registers a session under the user's topic. Idempotent per
// session: re-subscribing the same session replaces the registration, so a
// publish still delivers exactly once. Every call fires the subscribe
// listeners, re-subscriptions included.
func (h *Hub) Subscribe(userID int64, session Session) {
	h.mu.Lock()
	// A session belongs to at most one topic; drop any stale registration.
	if prev, ok := h.sessions[session.ID()]; ok && prev != userID {
		h.removeLocked(prev, session.ID())
	}
	set, ok := h.topics[userID]
	if !ok {
		set = make(map[string]Session)
		h.topics[userID] = set
	}
	_, existed := set[session.ID()]
	set[session.ID()] = session
	h.sessions[session.ID()] = userID
	h.mu.Unlock()

	if !existed {
		metrics.SessionsActive.Inc()
	}

	h.logger.Debug().
		Int64("user_id", userID).
		Str("session_id", session.ID()).
		Str("topic", Topic(userID)).
		Msg("session subscribed")

	for _, l := range h.listeners {
		l(userID, session)
	}
}

// Unsubscribe removes the session from its topic. Safe to call for sessions
// that were never subscribed.
func (h *Hub) Unsubscribe(session Session) {
	h.mu.Lock()
	userID, ok := h.sessions[session.ID()]
	if ok {
		h.removeLocked(userID, session.ID())
	}
	h.mu.Unlock()

	if ok {
		metrics.SessionsActive.Dec()
		h.logger.Debug().
			Int64("user_id", userID).
			Str("session_id", session.ID()).
			Msg("session unsubscribed")
	}
}

// removeLocked deletes a registration. Caller holds h.mu.
func (h *Hub) removeLocked(userID int64, sessionID string) {
	if set, ok := h.topics[userID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(h.topics, userID)
		}
	}
	delete(h.sessions, sessionID)
}

// Publish delivers the payload to every session currently on the user's
// topic and returns the delivery count. Sessions whose Send fails are
// dropped from the topic.
func (h *Hub) Publish(userID int64, payload models.PushPayload) int {
	h.mu.RLock()
	set := h.topics[userID]
	targets := make([]Session, 0, len(set))
	for _, s := range set {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if err := s.Send(payload); err != nil {
			h.logger.Warn().
				Err(err).
				Str("session_id", s.ID()).
				Int64("user_id", userID).
				Msg("dropping dead session")
			h.Unsubscribe(s)
			continue
		}
		delivered++
	}

	metrics.PayloadsPushed.Add(float64(delivered))
	return delivered
}
