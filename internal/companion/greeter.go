package companion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/dispatch"
	"github.com/Mseunghwan/NoSmoke/internal/metrics"
	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

// GreetingText is the canned proactive message sent when a user joins their
// channel.
const GreetingText = "Welcome! I'm Sterling, your quit-smoking helper.\nHow is your body feeling today?"

// Greeter observes subscribe events and sends a delayed proactive greeting
// through the message store and dispatcher. Every subscribe event schedules
// its own greeting; there is no deduplication across devices or reconnects.
type Greeter struct {
	store      store.Store
	dispatcher dispatch.Dispatcher
	delay      time.Duration
	logger     zerolog.Logger
}

// NewGreeter creates a session lifecycle monitor. delay lets the subscribe
// handshake settle before the greeting is pushed.
func NewGreeter(st store.Store, d dispatch.Dispatcher, delay time.Duration, logger zerolog.Logger) *Greeter {
	return &Greeter{
		store:      st,
		dispatcher: d,
		delay:      delay,
		logger:     logger.With().Str("component", "greeter").Logger(),
	}
}

// Greeting is a scheduled proactive message. Cancel stops it if it has not
// fired yet; current callers are fire-and-forget, the handle exists for
// future use.
type Greeting struct {
	timer *time.Timer
}

// Cancel stops the greeting. Reports whether it was stopped before firing.
func (g *Greeting) Cancel() bool {
	return g.timer.Stop()
}

// OnSubscribe schedules a greeting for the user's topic.
func (g *Greeter) OnSubscribe(userID int64) *Greeting {
	timer := time.AfterFunc(g.delay, func() {
		g.send(userID)
	})
	return &Greeting{timer: timer}
}

// Listener adapts the greeter to the dispatcher's subscribe hook.
func (g *Greeter) Listener() dispatch.SubscribeListener {
	return func(userID int64, _ dispatch.Session) {
		g.OnSubscribe(userID)
	}
}

// send persists and publishes the greeting. Failures are logged and dropped:
// a missed greeting is not worth surfacing to anyone.
func (g *Greeter) send(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg, err := g.store.AppendMessage(ctx, userID, GreetingText, models.TypeProactive)
	if err != nil {
		g.logger.Error().Err(err).Int64("user_id", userID).Msg("greeting persist failed")
		return
	}
	metrics.MessagesPersisted.WithLabelValues(string(models.TypeProactive)).Inc()

	delivered := g.dispatcher.Publish(userID, msg.Push())
	metrics.GreetingsSent.Inc()

	g.logger.Info().
		Int64("user_id", userID).
		Int("delivered", delivered).
		Str("topic", dispatch.Topic(userID)).
		Msg("proactive greeting sent")
}
