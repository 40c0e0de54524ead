// Package companion is the ingress facade and session lifecycle logic of the
// dialogue pipeline: it persists user messages, renders prompts, enqueues
// inference jobs, and greets users when they join their channel.
package companion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/metrics"
	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

// Fixed synchronous responses. The real AI answer always arrives later via
// the dispatcher channel or a subsequent message listing.
const (
	AckChat     = "Sterling is thinking it over..."
	AckAnalysis = "Your health report is being written..."
	// NoQuitDataReply answers an analysis request for a user without a quit
	// start date. Returned synchronously; no job is queued.
	NoQuitDataReply = "You haven't registered your quit info yet. Set your quit start date in the info tab, kiki!"
)

// Service is the synchronous entry point of the pipeline. It never blocks on
// inference: enqueue and return. Replies reach the user through the worker's
// dispatcher publish, never through this facade.
type Service struct {
	store  store.Store
	queue  queue.Queue
	logger zerolog.Logger
	now    func() time.Time
}

// NewService wires the facade with its collaborators.
func NewService(st store.Store, q queue.Queue, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		queue:  q,
		logger: logger.With().Str("component", "companion").Logger(),
		now:    time.Now,
	}
}

// chatContext loads the prompt sources for a user.
// Fails with store.ErrUserNotFound for unknown users.
func (s *Service) chatContext(ctx context.Context, userID int64) (models.ChatContext, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.ChatContext{}, err
	}
	info, err := s.store.GetSmokingInfo(ctx, userID)
	if err != nil {
		return models.ChatContext{}, err
	}
	return models.ChatContext{User: user, SmokingInfo: info}, nil
}

// Chat persists the user's message, enqueues an inference job, and returns
// the fixed acknowledgement. Errors before the job is queued (unknown user,
// broker down) surface to the caller and are retriable; after that the
// request is acknowledged regardless of the job's fate.
func (s *Service) Chat(ctx context.Context, userID int64, userMessage string) (string, error) {
	chatCtx, err := s.chatContext(ctx, userID)
	if err != nil {
		return "", err
	}

	if _, err := s.store.AppendMessage(ctx, userID, userMessage, models.TypeUser); err != nil {
		return "", err
	}
	metrics.MessagesPersisted.WithLabelValues(string(models.TypeUser)).Inc()

	prompt := BuildChatPrompt(chatCtx, userMessage, s.now())

	if err := s.queue.Publish(ctx, models.Job{UserID: userID, Prompt: prompt}); err != nil {
		return "", err
	}
	metrics.JobsPublished.Inc()

	s.logger.Info().Int64("user_id", userID).Msg("chat job enqueued")
	return AckChat, nil
}

// Analyze enqueues a health analysis job and returns the fixed
// acknowledgement with queued=true. Users without a quit start date get the
// canned informational reply synchronously with queued=false and nothing is
// enqueued.
func (s *Service) Analyze(ctx context.Context, userID int64) (reply string, queued bool, err error) {
	chatCtx, err := s.chatContext(ctx, userID)
	if err != nil {
		return "", false, err
	}

	if chatCtx.SmokingInfo == nil || chatCtx.SmokingInfo.QuitStartDate == nil {
		return NoQuitDataReply, false, nil
	}

	prompt := BuildAnalysisPrompt(chatCtx, s.now())

	if err := s.queue.Publish(ctx, models.Job{UserID: userID, Prompt: prompt}); err != nil {
		return "", false, err
	}
	metrics.JobsPublished.Inc()

	s.logger.Info().Int64("user_id", userID).Msg("analysis job enqueued")
	return AckAnalysis, true, nil
}

// ListMessages returns the user's dialogue history, newest first.
func (s *Service) ListMessages(ctx context.Context, userID int64, cursor store.Cursor, limit int) ([]models.Message, bool, error) {
	return s.store.ListMessages(ctx, userID, cursor, limit)
}
