package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mseunghwan/NoSmoke/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// RunMigrations creates the schema if it doesn't exist.
func RunMigrations(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS smoking_info (
		user_id BIGINT PRIMARY KEY REFERENCES users(id),
		quit_start_date TIMESTAMPTZ,
		quit_goal TEXT DEFAULT '',
		daily_cigs INT DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		content TEXT NOT NULL,
		message_type TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_user_created ON messages(user_id, created_at DESC, id DESC);
	`

	_, err = conn.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetUser retrieves a user by ID.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at
		FROM users WHERE id = $1
	`, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetSmokingInfo retrieves the cessation record for a user.
// Returns (nil, nil) when the user has no record.
func (s *PostgresStore) GetSmokingInfo(ctx context.Context, userID int64) (*models.SmokingInfo, error) {
	info := &models.SmokingInfo{}
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, quit_start_date, quit_goal, daily_cigs
		FROM smoking_info WHERE user_id = $1
	`, userID).Scan(
		&info.UserID,
		&info.QuitStartDate,
		&info.QuitGoal,
		&info.DailyCigs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// AppendMessage inserts a message for a user.
// Fails with ErrUserNotFound if the user id is unknown.
func (s *PostgresStore) AppendMessage(ctx context.Context, userID int64, content string, typ models.MessageType) (*models.Message, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1`, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Millisecond precision: the wire cursor is unix milliseconds, so finer
	// timestamps would break keyset comparisons.
	now := time.Now().UTC().Truncate(time.Millisecond)

	msg := &models.Message{UserID: userID, Content: content, Type: typ}
	var typStr string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO messages (user_id, content, message_type, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, message_type, created_at
	`, userID, content, string(typ), now).Scan(&msg.ID, &typStr, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	msg.Type = models.MessageType(typStr)
	return msg, nil
}

// ListMessages retrieves a user's messages newest first, using a
// (created_at, id) keyset cursor. hasMore is decided by fetching one extra
// row rather than a count query.
func (s *PostgresStore) ListMessages(ctx context.Context, userID int64, cursor Cursor, limit int) ([]models.Message, bool, error) {
	limit = normalizeLimit(limit)

	var rows pgx.Rows
	var err error
	if cursor.IsZero() {
		rows, err = s.pool.Query(ctx, `
			SELECT id, user_id, content, message_type, created_at
			FROM messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, userID, limit+1)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, user_id, content, message_type, created_at
			FROM messages
			WHERE user_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`, userID, cursor.Before, cursor.BeforeID, limit+1)
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
