package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// SQLiteStore handles SQLite database operations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/nosmoke.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/nosmoke.db"
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	// Initialize schema
	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS smoking_info (
		user_id INTEGER PRIMARY KEY REFERENCES users(id),
		quit_start_date DATETIME,
		quit_goal TEXT DEFAULT '',
		daily_cigs INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		content TEXT NOT NULL,
		message_type TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages(user_id, created_at DESC, id DESC);

	-- Seed demo user if not exists (development convenience)
	INSERT OR IGNORE INTO users (id, name) VALUES (1, 'demo');
	INSERT OR IGNORE INTO smoking_info (user_id) VALUES (1);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, created_at
		FROM users WHERE id = ?
	`, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetSmokingInfo retrieves the cessation record for a user.
// Returns (nil, nil) when the user has no record.
func (s *SQLiteStore) GetSmokingInfo(ctx context.Context, userID int64) (*models.SmokingInfo, error) {
	info := &models.SmokingInfo{}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, quit_start_date, quit_goal, daily_cigs
		FROM smoking_info WHERE user_id = ?
	`, userID).Scan(
		&info.UserID,
		&info.QuitStartDate,
		&info.QuitGoal,
		&info.DailyCigs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// AppendMessage inserts a message for a user.
// Fails with ErrUserNotFound if the user id is unknown.
func (s *SQLiteStore) AppendMessage(ctx context.Context, userID int64, content string, typ models.MessageType) (*models.Message, error) {
	// Trust a lightweight reference: existence check, no full load
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Millisecond precision: the wire cursor is unix milliseconds, so finer
	// timestamps would break keyset comparisons.
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, content, message_type, created_at)
		VALUES (?, ?, ?, ?)
	`, userID, content, string(typ), now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Message{
		ID:        id,
		UserID:    userID,
		Content:   content,
		Type:      typ,
		CreatedAt: now,
	}, nil
}

// ListMessages retrieves a user's messages newest first, using a
// (created_at, id) keyset cursor. hasMore is decided by fetching one extra
// row rather than a count query.
func (s *SQLiteStore) ListMessages(ctx context.Context, userID int64, cursor Cursor, limit int) ([]models.Message, bool, error) {
	limit = normalizeLimit(limit)

	var rows *sql.Rows
	var err error
	if cursor.IsZero() {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, user_id, content, message_type, created_at
			FROM messages
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, userID, limit+1)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, user_id, content, message_type, created_at
			FROM messages
			WHERE user_id = ?
			  AND (created_at < ? OR (created_at = ? AND id < ?))
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, userID, cursor.Before, cursor.Before, cursor.BeforeID, limit+1)
	}
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0, limit)
	for rows.Next() {
		var m models.Message
		var typ string
		if err := rows.Scan(&m.ID, &m.UserID, &m.Content, &typ, &m.CreatedAt); err != nil {
			return nil, false, err
		}
		m.Type = models.MessageType(typ)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return messages, hasMore, nil
}
