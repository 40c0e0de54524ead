// Package realtime exposes the per-user channel topics over WebSocket.
package realtime

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/dispatch"
	"github.com/Mseunghwan/NoSmoke/internal/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Clients only listen on their
	// channel; anything beyond control frames is noise.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Session is one WebSocket connection subscribed to a user's channel. It
// implements dispatch.Session.
type Session struct {
	id   string
	conn *websocket.Conn
	send chan models.PushPayload

	closeOnce sync.Once
	done      chan struct{}
}

// ID implements dispatch.Session.
func (s *Session) ID() string { return s.id }

// Send implements dispatch.Session. Non-blocking: a full buffer means the
// client stopped draining and the session is reported dead.
func (s *Session) Send(payload models.PushPayload) error {
	select {
	case <-s.done:
		return errors.New("session closed")
	case s.send <- payload:
		return nil
	default:
		return errors.New("session send buffer full")
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// Server upgrades HTTP requests into channel subscriptions.
type Server struct {
	hub    *dispatch.Hub
	logger zerolog.Logger
}

// NewServer creates the WebSocket endpoint bound to the dispatcher hub.
func NewServer(hub *dispatch.Hub, logger zerolog.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logger.With().Str("component", "realtime").Logger(),
	}
}

// ServeChannel handles GET /ws/channel/{userId}: upgrades the connection and
// registers the session on the user's topic. Subscribing triggers the
// dispatcher's subscribe listeners (proactive greeting included).
func (srv *Server) ServeChannel(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	session := &Session{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan models.PushPayload, 16),
		done: make(chan struct{}),
	}

	go srv.writePump(session)
	go srv.readPump(userID, session)

	srv.hub.Subscribe(userID, session)
}

// readPump drains the connection to process control frames and detect
// disconnects. Teardown unsubscribes the session from its topic.
func (srv *Server) readPump(userID int64, s *Session) {
	defer func() {
		srv.hub.Unsubscribe(s)
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				srv.logger.Debug().Err(err).Int64("user_id", userID).Str("session_id", s.id).Msg("session read error")
			}
			return
		}
	}
}

// writePump serializes payloads to the peer and keeps the connection alive
// with pings.
func (srv *Server) writePump(s *Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()

	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
