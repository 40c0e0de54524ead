package companion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

type fakeSession struct {
	id string

	mu  sync.Mutex
	got []models.PushPayload
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(p models.PushPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, p)
	return nil
}

func (s *fakeSession) payloads() []models.PushPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.PushPayload, len(s.got))
	copy(out, s.got)
	return out
}

func newServiceFixture(t *testing.T) (*Service, *store.MemStore, *queue.MemQueue) {
	t.Helper()
	st := store.NewMemStore()
	st.AddUser(&models.User{ID: 42, Name: "Jihoon"})
	q := queue.NewMemQueue(8)
	svc := NewService(st, q, zerolog.Nop())
	return svc, st, q
}

func TestChatPersistsAndEnqueues(t *testing.T) {
	svc, st, q := newServiceFixture(t)
	ctx := context.Background()

	ack, err := svc.Chat(ctx, 42, "I want to smoke")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if ack != AckChat {
		t.Fatalf("expected fixed acknowledgement, got %q", ack)
	}

	// USER message persisted immediately with the original content
	items, _, err := st.ListMessages(ctx, 42, store.Cursor{}, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Type != models.TypeUser || items[0].Content != "I want to smoke" {
		t.Fatalf("expected one USER message with original content, got %+v", items)
	}

	// Exactly one job enqueued, carrying the rendered prompt
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued job, got %d", q.Len())
	}
	job, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if job.UserID != 42 {
		t.Fatalf("expected job for user 42, got %d", job.UserID)
	}
	if !strings.Contains(job.Prompt, "I want to smoke") || !strings.Contains(job.Prompt, "Jihoon") {
		t.Fatalf("job prompt missing context:\n%s", job.Prompt)
	}
}

func TestChatUnknownUser(t *testing.T) {
	svc, _, q := newServiceFixture(t)

	_, err := svc.Chat(context.Background(), 999, "hi")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if q.Len() != 0 {
		t.Fatalf("no job must be enqueued for unknown users")
	}
}

func TestChatQueueFailureSurfaces(t *testing.T) {
	st := store.NewMemStore()
	st.AddUser(&models.User{ID: 42, Name: "Jihoon"})
	q := queue.NewMemQueue(1)
	svc := NewService(st, q, zerolog.Nop())

	// Fill the queue so the next publish fails like an unreachable broker
	if err := q.Publish(context.Background(), models.Job{UserID: 1, Prompt: "x"}); err != nil {
		t.Fatalf("prefill: %v", err)
	}

	_, err := svc.Chat(context.Background(), 42, "hello")
	if !errors.Is(err, queue.ErrPublish) {
		t.Fatalf("expected ErrPublish surfaced to caller, got %v", err)
	}
}

func TestAnalyzeWithoutQuitData(t *testing.T) {
	svc, _, q := newServiceFixture(t)

	reply, queued, err := svc.Analyze(context.Background(), 42)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if queued {
		t.Fatalf("expected synchronous canned reply, not a queued job")
	}
	if reply != NoQuitDataReply {
		t.Fatalf("expected canned no-data reply, got %q", reply)
	}
	if q.Len() != 0 {
		t.Fatalf("queue must receive zero publishes, got %d", q.Len())
	}
}

func TestAnalyzeWithQuitData(t *testing.T) {
	svc, st, q := newServiceFixture(t)
	start := time.Now().AddDate(0, 0, -14)
	st.SetSmokingInfo(&models.SmokingInfo{UserID: 42, QuitStartDate: &start})

	reply, queued, err := svc.Analyze(context.Background(), 42)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !queued || reply != AckAnalysis {
		t.Fatalf("expected queued analysis with fixed ack, got queued=%v reply=%q", queued, reply)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued job, got %d", q.Len())
	}

	job, _ := q.Consume(context.Background())
	if !strings.Contains(job.Prompt, "day 14") {
		t.Fatalf("analysis prompt missing day count:\n%s", job.Prompt)
	}
}

func TestListMessagesDelegates(t *testing.T) {
	svc, st, _ := newServiceFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := st.AppendMessage(ctx, 42, "m", models.TypeUser); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, hasMore, err := svc.ListMessages(ctx, 42, store.Cursor{}, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || !hasMore {
		t.Fatalf("expected 2 items with hasMore, got %d, %v", len(items), hasMore)
	}
}
