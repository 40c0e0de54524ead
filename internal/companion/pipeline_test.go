package companion

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mseunghwan/NoSmoke/internal/dispatch"
	"github.com/Mseunghwan/NoSmoke/internal/inference"
	"github.com/Mseunghwan/NoSmoke/internal/models"
	"github.com/Mseunghwan/NoSmoke/internal/queue"
	"github.com/Mseunghwan/NoSmoke/internal/store"
	"github.com/Mseunghwan/NoSmoke/internal/worker"
)

// End-to-end: chat request through queue, worker, store and dispatcher.
func TestChatPipelineEndToEnd(t *testing.T) {
	st := store.NewMemStore()
	st.AddUser(&models.User{ID: 42, Name: "Jihoon"})
	q := queue.NewMemQueue(8)
	hub := dispatch.NewHub(zerolog.Nop())
	svc := NewService(st, q, zerolog.Nop())

	client := inference.NewMockClient()
	client.Reply = func(prompt string) (string, error) {
		return "Hang in there, Master Jihoon, kiki!", nil
	}

	w := worker.New(q, st, hub, client, time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	session := &fakeSession{id: "browser"}
	hub.Subscribe(42, session)

	ack, err := svc.Chat(context.Background(), 42, "I want to smoke")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if ack != AckChat {
		t.Fatalf("expected fixed ack, got %q", ack)
	}

	// USER message is there immediately
	items, _, err := st.ListMessages(context.Background(), 42, store.Cursor{}, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Type != models.TypeUser {
		t.Fatalf("expected immediate USER message, got %+v", items)
	}

	// Exactly one REACTIVE message within the timeout window
	ok := waitFor(t, 2*time.Second, func() bool {
		items, _, _ := st.ListMessages(context.Background(), 42, store.Cursor{}, 10)
		reactive := 0
		for _, m := range items {
			if m.Type == models.TypeReactive {
				reactive++
			}
		}
		return reactive == 1
	})
	if !ok {
		t.Fatalf("expected exactly one REACTIVE message for user 42")
	}

	// Exactly one payload pushed to the subscribed session
	if !waitFor(t, time.Second, func() bool { return len(session.payloads()) == 1 }) {
		t.Fatalf("expected one payload on channel/42, got %d", len(session.payloads()))
	}
	payload := session.payloads()[0]
	if payload.Type != string(models.TypeReactive) {
		t.Fatalf("expected REACTIVE payload, got %s", payload.Type)
	}
	if !strings.Contains(payload.Content, "Jihoon") {
		t.Fatalf("unexpected payload content: %q", payload.Content)
	}
}
