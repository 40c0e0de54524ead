package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// MemStore is an in-memory Store used in tests and as a fallback when no
// database is configured. Safe for concurrent use.
type MemStore struct {
	mu       sync.RWMutex
	users    map[int64]*models.User
	info     map[int64]*models.SmokingInfo
	messages map[int64][]models.Message
	nextID   int64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[int64]*models.User),
		info:     make(map[int64]*models.SmokingInfo),
		messages: make(map[int64][]models.Message),
	}
}

// AddUser registers a user. Test and dev seeding helper.
func (s *MemStore) AddUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
}

// SetSmokingInfo attaches a cessation record to a user. Test and dev helper.
func (s *MemStore) SetSmokingInfo(info *models.SmokingInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info[info.UserID] = info
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() {}

// Ping always succeeds.
func (s *MemStore) Ping(ctx context.Context) error { return nil }

// GetUser retrieves a user by ID.
func (s *MemStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// GetSmokingInfo retrieves the cessation record for a user, (nil, nil) if absent.
func (s *MemStore) GetSmokingInfo(ctx context.Context, userID int64) (*models.SmokingInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.info[userID]
	if !ok {
		return nil, nil
	}
	i := *info
	return &i, nil
}

// AppendMessage appends a message to the user's log.
func (s *MemStore) AppendMessage(ctx context.Context, userID int64, content string, typ models.MessageType) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, ErrUserNotFound
	}

	s.nextID++
	msg := models.Message{
		ID:        s.nextID,
		UserID:    userID,
		Content:   content,
		Type:      typ,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.messages[userID] = append(s.messages[userID], msg)
	m := msg
	return &m, nil
}

// ListMessages returns the user's messages newest first with keyset paging.
func (s *MemStore) ListMessages(ctx context.Context, userID int64, cursor Cursor, limit int) ([]models.Message, bool, error) {
	limit = normalizeLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[userID]
	sorted := make([]models.Message, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	result := make([]models.Message, 0, limit)
	for _, m := range sorted {
		if !cursor.IsZero() {
			if m.CreatedAt.After(cursor.Before) {
				continue
			}
			if m.CreatedAt.Equal(cursor.Before) && m.ID >= cursor.BeforeID {
				continue
			}
		}
		result = append(result, m)
		if len(result) > limit {
			break
		}
	}

	hasMore := len(result) > limit
	if hasMore {
		result = result[:limit]
	}
	return result, hasMore, nil
}
