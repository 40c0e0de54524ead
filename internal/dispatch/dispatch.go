// Package dispatch implements per-user topic fan-out to live client sessions.
package dispatch

import (
	"fmt"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// Topic returns the publish/subscribe address for a user's channel.
func Topic(userID int64) string {
	return fmt.Sprintf("channel/%d", userID)
}

// Session is a live client connection able to receive push payloads.
// Implementations must not block indefinitely in Send.
type Session interface {
	// ID uniquely identifies the session across its lifetime.
	ID() string
	// Send delivers a payload to the client. An error marks the session as
	// dead; the dispatcher will not retry.
	Send(payload models.PushPayload) error
}

// SubscribeListener observes subscribe events on user topics. Each subscribe
// event fires the listener once, including repeat subscriptions by the same
// session.
type SubscribeListener func(userID int64, session Session)

// Dispatcher fans out message payloads to sessions subscribed to a user's
// topic. Delivery is transient and best-effort: sessions not connected at
// publish time never receive the payload. The message store remains the
// durable record.
type Dispatcher interface {
	Subscribe(userID int64, session Session)
	Unsubscribe(session Session)
	Publish(userID int64, payload models.PushPayload) int
}
