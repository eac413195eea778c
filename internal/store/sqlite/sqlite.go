package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/onetimechat/relay-server/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id           TEXT NOT NULL UNIQUE,
	is_active         BOOLEAN NOT NULL DEFAULT 1,
	participant_count INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id    TEXT NOT NULL,
	session_id TEXT NOT NULL,
	joined_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id         TEXT NOT NULL,
	text            TEXT NOT NULL,
	sender          TEXT NOT NULL DEFAULT 'anonymous',
	reply_to_id     INTEGER,
	reply_to_text   TEXT,
	reply_to_sender TEXT,
	created_at      DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rooms_created_at ON rooms(created_at);
CREATE INDEX IF NOT EXISTS idx_participants_room ON participants(room_id);
CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== RoomStore implementation ====

// FindRoom retrieves a room by its token.
func (s *SQLiteStore) FindRoom(ctx context.Context, roomID string) (*store.Room, error) {
	query := `
		SELECT id, room_id, is_active, participant_count, created_at
		FROM rooms
		WHERE room_id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, roomID).Scan(
		&room.ID,
		&room.RoomID,
		&room.IsActive,
		&room.ParticipantCount,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query room: %w", err)
	}

	return &room, nil
}

// FindOrCreateRoom retrieves the room, creating it when absent.
func (s *SQLiteStore) FindOrCreateRoom(ctx context.Context, roomID string) (*store.Room, error) {
	query := `
		INSERT OR IGNORE INTO rooms (room_id, is_active, participant_count, created_at)
		VALUES (?, 1, 0, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	return s.FindRoom(ctx, roomID)
}

// UpdatePresence persists the live participant count and active flag.
func (s *SQLiteStore) UpdatePresence(ctx context.Context, roomID string, count int, active bool) error {
	query := `
		UPDATE rooms
		SET participant_count = ?, is_active = ?
		WHERE room_id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, count, active, roomID); err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

// AddParticipant appends a session to the room's join log.
func (s *SQLiteStore) AddParticipant(ctx context.Context, roomID, sessionID string, joinedAt time.Time) error {
	query := `
		INSERT INTO participants (room_id, session_id, joined_at)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, sessionID, joinedAt.UTC()); err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes the departing session's entry from the log.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, roomID, sessionID string) error {
	query := `DELETE FROM participants WHERE room_id = ? AND session_id = ?`
	if _, err := s.db.ExecContext(ctx, query, roomID, sessionID); err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	return nil
}

// ListParticipants returns the room's join log in join order.
func (s *SQLiteStore) ListParticipants(ctx context.Context, roomID string) ([]*store.Participant, error) {
	query := `
		SELECT session_id, joined_at
		FROM participants
		WHERE room_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*store.Participant, 0)
	for rows.Next() {
		var p store.Participant
		if err := rows.Scan(&p.SessionID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return participants, nil
}

// DeleteRoom removes a room together with its messages and join log.
func (s *SQLiteStore) DeleteRoom(ctx context.Context, roomID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM messages WHERE room_id = ?`,
		`DELETE FROM participants WHERE room_id = ?`,
		`DELETE FROM rooms WHERE room_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, roomID); err != nil {
			return fmt.Errorf("delete room: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteExpiredRooms removes rooms created before cutoff, messages and join
// log included, and returns how many rooms were deleted.
func (s *SQLiteStore) DeleteExpiredRooms(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	expired := `SELECT room_id FROM rooms WHERE created_at < ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE room_id IN (`+expired+`)`, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("delete expired messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE room_id IN (`+expired+`)`, cutoff.UTC()); err != nil {
		return 0, fmt.Errorf("delete expired participants: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired rooms: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

// ==== MessageStore implementation ====

// AppendMessage persists a message and returns the assigned id.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *store.Message) (int64, error) {
	query := `
		INSERT INTO messages (room_id, text, sender, reply_to_id, reply_to_text, reply_to_sender, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var replyID, replyText, replySender any
	if msg.ReplyTo != nil {
		replyID = msg.ReplyTo.ID
		replyText = msg.ReplyTo.Text
		replySender = msg.ReplyTo.Sender
	}

	result, err := s.db.ExecContext(ctx, query,
		msg.RoomID, msg.Text, msg.Sender, replyID, replyText, replySender, msg.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	return id, nil
}

// GetMessage retrieves one message of a room by id.
func (s *SQLiteStore) GetMessage(ctx context.Context, roomID string, id int64) (*store.Message, error) {
	query := `
		SELECT id, room_id, text, sender, reply_to_id, reply_to_text, reply_to_sender, created_at
		FROM messages
		WHERE room_id = ? AND id = ?
	`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, roomID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return msg, nil
}

// ListMessages retrieves up to limit messages of a room in append order.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, room_id, text, sender, reply_to_id, reply_to_text, reply_to_sender, created_at
		FROM messages
		WHERE room_id = ?
		ORDER BY id ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var (
		msg         store.Message
		replyID     sql.NullInt64
		replyText   sql.NullString
		replySender sql.NullString
	)
	err := row.Scan(
		&msg.ID,
		&msg.RoomID,
		&msg.Text,
		&msg.Sender,
		&replyID,
		&replyText,
		&replySender,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if replyID.Valid {
		msg.ReplyTo = &store.ReplyRef{
			ID:     replyID.Int64,
			Text:   replyText.String,
			Sender: replySender.String,
		}
	}
	return &msg, nil
}
