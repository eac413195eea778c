package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// Room is the durable record for a rendezvous room.
type Room struct {
	ID               int64
	RoomID           string // short upper-case token, unique
	IsActive         bool
	ParticipantCount int
	CreatedAt        time.Time
}

// Participant is one entry in a room's historical join log.
type Participant struct {
	SessionID string
	JoinedAt  time.Time
}

// ReplyRef is a flattened one-level reference to a parent message.
type ReplyRef struct {
	ID     int64
	Text   string
	Sender string
}

// Message is a persisted chat message. ID is assigned by the store.
type Message struct {
	ID        int64
	RoomID    string
	Text      string
	Sender    string
	ReplyTo   *ReplyRef
	CreatedAt time.Time
}

// RoomStore handles room persistence.
type RoomStore interface {
	// FindRoom retrieves a room by its token. Returns ErrNotFound if absent.
	FindRoom(ctx context.Context, roomID string) (*Room, error)

	// FindOrCreateRoom retrieves the room, creating it active and empty when
	// absent. Never fails because the room already exists.
	FindOrCreateRoom(ctx context.Context, roomID string) (*Room, error)

	// UpdatePresence persists the live participant count and active flag.
	UpdatePresence(ctx context.Context, roomID string, count int, active bool) error

	// AddParticipant appends a session to the room's historical join log.
	AddParticipant(ctx context.Context, roomID, sessionID string, joinedAt time.Time) error

	// RemoveParticipant removes the departing session's entry from the log.
	RemoveParticipant(ctx context.Context, roomID, sessionID string) error

	// ListParticipants returns the room's join log in join order.
	ListParticipants(ctx context.Context, roomID string) ([]*Participant, error)

	// DeleteRoom removes a room together with its messages and join log.
	DeleteRoom(ctx context.Context, roomID string) error

	// DeleteExpiredRooms removes rooms created before cutoff and returns how
	// many were deleted.
	DeleteExpiredRooms(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// AppendMessage persists a message to the room's log and returns the
	// durable id the store assigned.
	AppendMessage(ctx context.Context, msg *Message) (int64, error)

	// GetMessage retrieves one message of a room by id.
	// Returns ErrNotFound if absent.
	GetMessage(ctx context.Context, roomID string, id int64) (*Message, error)

	// ListMessages retrieves up to limit messages of a room in append order.
	ListMessages(ctx context.Context, roomID string, limit int) ([]*Message, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
