package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestSQLiteAppendUnknownUser(t *testing.T) {
	s := newSQLiteTestStore(t)

	_, err := s.AppendMessage(context.Background(), 12345, "hi", models.TypeUser)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestSQLiteAppendAndList(t *testing.T) {
	s := newSQLiteTestStore(t)
	ctx := context.Background()

	// Schema seeds user 1
	for i := 0; i < 4; i++ {
		msg, err := s.AppendMessage(ctx, 1, fmt.Sprintf("m%d", i), models.TypeReactive)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if msg.ID == 0 {
			t.Fatalf("expected generated id")
		}
		if msg.Type != models.TypeReactive {
			t.Fatalf("expected REACTIVE, got %s", msg.Type)
		}
	}

	items, hasMore, err := s.ListMessages(ctx, 1, Cursor{}, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 || !hasMore {
		t.Fatalf("expected full page with hasMore, got %d items, hasMore=%v", len(items), hasMore)
	}
	if items[0].Content != "m3" {
		t.Fatalf("expected newest first, got %q", items[0].Content)
	}

	last := items[len(items)-1]
	items2, hasMore2, err := s.ListMessages(ctx, 1, Cursor{Before: last.CreatedAt, BeforeID: last.ID}, 3)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(items2) != 1 || hasMore2 {
		t.Fatalf("expected final page of 1, got %d items, hasMore=%v", len(items2), hasMore2)
	}
}

func TestSQLiteGetUser(t *testing.T) {
	s := newSQLiteTestStore(t)

	user, err := s.GetUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("get seeded user: %v", err)
	}
	if user.Name != "demo" {
		t.Fatalf("expected seeded demo user, got %q", user.Name)
	}

	if _, err := s.GetUser(context.Background(), 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
