package core

import "encoding/json"

// CommandKind describes what the session wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the session to a room, creating it if absent.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom unsubscribes the session from a room.
	CommandLeaveRoom
	// CommandSendMessage delivers a chat message to room participants.
	CommandSendMessage
	// CommandOffer relays a WebRTC offer to the room's other session.
	CommandOffer
	// CommandAnswer relays a WebRTC answer to the room's other session.
	CommandAnswer
	// CommandICECandidate relays an ICE candidate to the room's other session.
	CommandICECandidate
)

// Command represents an action requested by a session.
type Command struct {
	Kind    CommandKind
	Room    string
	Text    string
	ReplyTo *ReplyRef
	// Payload carries an opaque signaling blob; the relay never inspects it.
	Payload json.RawMessage
}
