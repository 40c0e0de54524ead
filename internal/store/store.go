package store

import (
	"context"
	"errors"
	"time"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// ErrUserNotFound is returned when an operation references a user id that
// does not resolve to a known user.
var ErrUserNotFound = errors.New("user not found")

const (
	// DefaultPageSize is used when the caller does not specify a limit.
	DefaultPageSize = 20
	// MaxPageSize caps the page size regardless of what the caller asks for.
	MaxPageSize = 100
)

// Cursor is a keyset pagination cursor: the (created_at, id) of the last
// message on the previous page. The zero value means "from the newest".
// Keyset is used instead of a numeric offset so concurrent inserts cannot
// skip or duplicate rows between pages.
type Cursor struct {
	Before   time.Time
	BeforeID int64
}

// IsZero reports whether the cursor requests the first page.
func (c Cursor) IsZero() bool {
	return c.Before.IsZero() && c.BeforeID == 0
}

// Store defines the persistence interface for the dialogue pipeline.
// SQLiteStore, PostgresStore and MemStore implement this interface.
type Store interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User reference data (owned by another subsystem, read-only here)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetSmokingInfo(ctx context.Context, userID int64) (*models.SmokingInfo, error)

	// Message log (append-only)
	AppendMessage(ctx context.Context, userID int64, content string, typ models.MessageType) (*models.Message, error)
	ListMessages(ctx context.Context, userID int64, cursor Cursor, limit int) ([]models.Message, bool, error)
}

// normalizeLimit clamps a requested page size into [1, MaxPageSize].
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
