package core

import "time"

// AnonymousSender labels every message author; the system tracks no identities.
const AnonymousSender = "anonymous"

// ReplyRef is a one-level reference to the immediate parent of a reply.
// It never chains: a reply to a reply still points at its direct parent.
type ReplyRef struct {
	ID     int64
	Text   string
	Sender string
}

// Message is the domain model for a chat message. ID and CreatedAt are
// assigned by the server at persistence time, never by the client.
type Message struct {
	ID        int64
	Room      string
	Text      string
	Sender    string
	ReplyTo   *ReplyRef
	CreatedAt time.Time
}
