package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinRoom     = "join-room"
	InboundTypeLeaveRoom    = "leave-room"
	InboundTypeSendMessage  = "send-message"
	InboundTypeOffer        = "offer"
	InboundTypeAnswer       = "answer"
	InboundTypeICECandidate = "ice-candidate"

	OutboundTypeRoomJoined           = "room-joined"
	OutboundTypeUserJoined           = "user-joined"
	OutboundTypeRoomLeft             = "room-left"
	OutboundTypeUserLeft             = "user-left"
	OutboundTypeMessageReceived      = "message-received"
	OutboundTypeOfferReceived        = "offer-received"
	OutboundTypeAnswerReceived       = "answer-received"
	OutboundTypeICECandidateReceived = "ice-candidate-received"
	OutboundTypeError                = "error"
)

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// JoinRoomData requests to join (or leave) a specific room.
type JoinRoomData struct {
	RoomID string `json:"roomId"`
}

// ReplyRefData is a flattened one-level reference to a parent message.
type ReplyRefData struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	RoomID  string        `json:"roomId"`
	Text    string        `json:"text"`
	ReplyTo *ReplyRefData `json:"replyTo,omitempty"`
}

// SignalData carries an opaque WebRTC signaling payload toward the server.
// Exactly one of Offer, Answer, Candidate is set, matching the inbound type.
type SignalData struct {
	RoomID    string          `json:"roomId"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// RoomJoinedData acknowledges a join to the joining session.
type RoomJoinedData struct {
	RoomID           string `json:"roomId"`
	ParticipantCount int    `json:"participantCount"`
}

// UserJoinedData notifies the other room members about a join.
type UserJoinedData struct {
	ParticipantCount int `json:"participantCount"`
}

// RoomLeftData acknowledges an explicit leave.
type RoomLeftData struct {
	RoomID string `json:"roomId"`
}

// UserLeftData notifies the remaining members about a departure.
type UserLeftData struct {
	ParticipantCount int `json:"participantCount"`
}

// MessageReceivedData is the authoritative broadcast copy of a chat message,
// delivered to every room member including the sender.
type MessageReceivedData struct {
	ID        int64         `json:"id"`
	Text      string        `json:"text"`
	Sender    string        `json:"sender"`
	Timestamp time.Time     `json:"timestamp"`
	RoomID    string        `json:"roomId"`
	ReplyTo   *ReplyRefData `json:"replyTo,omitempty"`
}

// OfferReceivedData relays an offer to the room's other session.
type OfferReceivedData struct {
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

// AnswerReceivedData relays an answer to the room's other session.
type AnswerReceivedData struct {
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

// ICECandidateReceivedData relays an ICE candidate to the room's other session.
type ICECandidateReceivedData struct {
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

// ErrorData describes a domain error, sent to the originating session only.
type ErrorData struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
