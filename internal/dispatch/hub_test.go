package dispatch

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

type fakeSession struct {
	id   string
	fail bool

	mu  sync.Mutex
	got []models.PushPayload
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Send(p models.PushPayload) error {
	if s.fail {
		return errors.New("send failed")
	}
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

func payload(id int64) models.PushPayload {
	return models.PushPayload{MessageID: id, Content: "hello", Type: "REACTIVE"}
}

func TestTopicAddress(t *testing.T) {
	if got := Topic(42); got != "channel/42" {
		t.Fatalf("expected channel/42, got %q", got)
	}
}

func TestPublishFanOut(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := &fakeSession{id: "a"}
	b := &fakeSession{id: "b"}
	other := &fakeSession{id: "c"}

	hub.Subscribe(42, a)
	hub.Subscribe(42, b)
	hub.Subscribe(7, other)

	n := hub.Publish(42, payload(1))
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if len(a.payloads()) != 1 || len(b.payloads()) != 1 {
		t.Fatalf("expected each subscribed session to receive the payload")
	}
	if len(other.payloads()) != 0 {
		t.Fatalf("session on another user's topic must not receive the payload")
	}
}

func TestSubscribeIdempotent(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	s := &fakeSession{id: "a"}

	hub.Subscribe(42, s)
	hub.Subscribe(42, s)

	if n := hub.Publish(42, payload(1)); n != 1 {
		t.Fatalf("double subscribe must deliver exactly once, got %d deliveries", n)
	}
	if len(s.payloads()) != 1 {
		t.Fatalf("expected exactly one payload, got %d", len(s.payloads()))
	}
}

func TestUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	s := &fakeSession{id: "a"}

	hub.Subscribe(42, s)
	hub.Unsubscribe(s)

	if n := hub.Publish(42, payload(1)); n != 0 {
		t.Fatalf("expected no deliveries after unsubscribe, got %d", n)
	}

	// Unsubscribing an unknown session is a no-op
	hub.Unsubscribe(&fakeSession{id: "ghost"})
}

func TestPublishDropsDeadSession(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	dead := &fakeSession{id: "dead", fail: true}
	live := &fakeSession{id: "live"}

	hub.Subscribe(42, dead)
	hub.Subscribe(42, live)

	if n := hub.Publish(42, payload(1)); n != 1 {
		t.Fatalf("expected 1 delivery with one dead session, got %d", n)
	}

	// Dead session was removed; only the live one is delivered to now
	if n := hub.Publish(42, payload(2)); n != 1 {
		t.Fatalf("expected dead session to stay dropped, got %d deliveries", n)
	}
	if len(live.payloads()) != 2 {
		t.Fatalf("expected live session to receive both payloads")
	}
}

func TestPublishOrderPreserved(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	s := &fakeSession{id: "a"}
	hub.Subscribe(42, s)

	for i := int64(1); i <= 5; i++ {
		hub.Publish(42, payload(i))
	}

	got := s.payloads()
	if len(got) != 5 {
		t.Fatalf("expected 5 payloads, got %d", len(got))
	}
	for i, p := range got {
		if p.MessageID != int64(i+1) {
			t.Fatalf("delivery order broken: got message %d at position %d", p.MessageID, i)
		}
	}
}

func TestSubscribeListenerFiresPerEvent(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	var mu sync.Mutex
	var events []int64
	hub.AddSubscribeListener(func(userID int64, _ Session) {
		mu.Lock()
		events = append(events, userID)
		mu.Unlock()
	})

	s := &fakeSession{id: "a"}
	hub.Subscribe(42, s)
	hub.Subscribe(42, s) // re-subscribe still fires the listener

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected listener per subscribe event, got %d", len(events))
	}
}

func TestConcurrentSubscribePublish(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := &fakeSession{id: string(rune('a' + i))}
			hub.Subscribe(int64(i%4), s)
			hub.Publish(int64(i%4), payload(int64(i)))
			hub.Unsubscribe(s)
		}(i)
	}
	wg.Wait()
}
