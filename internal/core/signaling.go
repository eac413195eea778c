package core

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// SignalingRelay forwards WebRTC offer/answer/ICE-candidate payloads between
// the sessions of a room without interpreting them. It holds no state of its
// own: fan-out targets come from the registry at the instant of the call.
//
// Capacity assumption: rooms used for calls hold at most two sessions, so
// "every other session" is exactly the intended peer. Multi-party negotiation
// would need addressing by destination session instead of broadcast.
type SignalingRelay struct {
	registry *Registry
	log      *zerolog.Logger
}

func newSignalingRelay(registry *Registry, logger *zerolog.Logger) *SignalingRelay {
	return &SignalingRelay{registry: registry, log: logger}
}

// Relay forwards payload unmodified to every other session in the room,
// tagged with the sender's session id. A room with no other members is a
// silent no-op: a caller may signal before its peer has joined.
func (s *SignalingRelay) Relay(c *Client, kind EventKind, roomID string, payload json.RawMessage) {
	roomID = NormalizeRoomID(roomID)
	if roomID == "" {
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeInvalidRequest, "room id is required")})
		return
	}

	for _, member := range s.registry.Members(roomID) {
		if member == c {
			continue
		}
		member.deliver(&Event{Kind: kind, Room: roomID, Payload: payload, From: c.ID})
	}
}
