package models

import "time"

// MessageType classifies who (or what) authored a dialogue message.
type MessageType string

const (
	// TypeUser is a message authored by the human user.
	TypeUser MessageType = "USER"
	// TypeReactive is an AI message generated in response to a user message.
	TypeReactive MessageType = "REACTIVE"
	// TypeProactive is an AI message generated without a triggering user
	// message, such as the greeting sent on channel subscribe.
	TypeProactive MessageType = "PROACTIVE"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case TypeUser, TypeReactive, TypeProactive:
		return true
	}
	return false
}

// Message is a persisted dialogue message. Messages are append-only: created
// once by the ingress (USER) or by the worker/greeter (REACTIVE/PROACTIVE),
// never mutated afterwards. Ordering for a user is by CreatedAt, ties broken
// by ID (insertion order).
type Message struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	Content   string      `json:"content"`
	Type      MessageType `json:"message_type"`
	CreatedAt time.Time   `json:"created_at"`
}

// PushPayload is the frame delivered to live sessions subscribed to a user's
// channel topic.
type PushPayload struct {
	MessageID int64     `json:"messageId"`
	Content   string    `json:"content"`
	Type      string    `json:"messageType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Push builds the dispatcher payload for a persisted message.
func (m *Message) Push() PushPayload {
	return PushPayload{
		MessageID: m.ID,
		Content:   m.Content,
		Type:      string(m.Type),
		CreatedAt: m.CreatedAt,
	}
}
