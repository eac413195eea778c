package core

import "encoding/json"

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventRoomJoined acknowledges a join to the joining session.
	EventRoomJoined EventKind = iota
	// EventUserJoined notifies the other room members about a join.
	EventUserJoined
	// EventRoomLeft acknowledges an explicit leave to the departing session.
	EventRoomLeft
	// EventUserLeft notifies the remaining members about a departure.
	EventUserLeft
	// EventMessageReceived delivers a chat message, sender included.
	EventMessageReceived
	// EventOfferReceived relays a WebRTC offer from another session.
	EventOfferReceived
	// EventAnswerReceived relays a WebRTC answer from another session.
	EventAnswerReceived
	// EventICECandidateReceived relays an ICE candidate from another session.
	EventICECandidateReceived
	// EventError notifies the originating session about a domain error.
	EventError
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Count   int      // live participant count after the transition
	Message *Message // for EventMessageReceived
	Payload json.RawMessage
	From    string // session id of the signaling sender
	Error   *CoreError
}
