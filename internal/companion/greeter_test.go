package companion

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/dispatch"
	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/store"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func proactiveCount(t *testing.T, st *store.MemStore, userID int64) int {
	t.Helper()
	items, _, err := st.ListMessages(context.Background(), userID, store.Cursor{}, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	n := 0
	for _, m := range items {
		if m.Type == models.TypeProactive {
			n++
		}
	}
	return n
}

func TestGreetingOnSubscribe(t *testing.T) {
	st := store.NewMemStore()
	st.AddUser(&models.User{ID: 99, Name: "Min"})
	hub := dispatch.NewHub(zerolog.Nop())
	greeter := NewGreeter(st, hub, 10*time.Millisecond, zerolog.Nop())
	hub.AddSubscribeListener(greeter.Listener())

	session := &fakeSession{id: "s1"}
	hub.Subscribe(99, session)

	if !waitFor(t, time.Second, func() bool { return proactiveCount(t, st, 99) == 1 }) {
		t.Fatalf("expected exactly one PROACTIVE message after the delay")
	}

	if !waitFor(t, time.Second, func() bool { return len(session.payloads()) == 1 }) {
		t.Fatalf("expected greeting pushed to the subscribed session")
	}
	got := session.payloads()[0]
	if got.Type != string(models.TypeProactive) || got.Content != GreetingText {
		t.Fatalf("unexpected greeting payload: %+v", got)
	}
}

func TestGreetingPerSubscribeEvent(t *testing.T) {
	st := store.NewMemStore()
	st.AddUser(&models.User{ID: 99, Name: "Min"})
	hub := dispatch.NewHub(zerolog.Nop())
	greeter := NewGreeter(st, hub, 5*time.Millisecond, zerolog.Nop())
	hub.AddSubscribeListener(greeter.Listener())

	// Two devices subscribing both get a greeting; no deduplication
	hub.Subscribe(99, &fakeSession{id: "phone"})
	hub.Subscribe(99, &fakeSession{id: "laptop"})

	if !waitFor(t, time.Second, func() bool { return proactiveCount(t, st, 99) == 2 }) {
		t.Fatalf("expected one greeting per subscribe event, got %d", proactiveCount(t, st, 99))
	}
}

func TestGreetingCancel(t *testing.T) {
	st := store.NewMemStore()
	st.AddUser(&models.User{ID: 99, Name: "Min"})
	hub := dispatch.NewHub(zerolog.Nop())
	greeter := NewGreeter(st, hub, 50*time.Millisecond, zerolog.Nop())

	g := greeter.OnSubscribe(99)
	if !g.Cancel() {
		t.Fatalf("expected cancel to stop the pending greeting")
	}

	time.Sleep(100 * time.Millisecond)
	if n := proactiveCount(t, st, 99); n != 0 {
		t.Fatalf("cancelled greeting must not fire, got %d messages", n)
	}
}

func TestGreetingUnknownUserDropped(t *testing.T) {
	st := store.NewMemStore()
	hub := dispatch.NewHub(zerolog.Nop())
	greeter := NewGreeter(st, hub, 5*time.Millisecond, zerolog.Nop())

	// Persist fails for an unknown user; the greeting is logged and dropped
	greeter.OnSubscribe(12345)
	time.Sleep(50 * time.Millisecond)

	if n := proactiveCount(t, st, 12345); n != 0 {
		t.Fatalf("expected no messages for unknown user, got %d", n)
	}
}
