package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/onetimechat/relay-server/internal/store"
	"github.com/rs/zerolog"
)

// MessageRelay accepts an inbound chat message, persists it, and broadcasts
// the stored form to every session in the room, the sender included. The one
// broadcast copy is authoritative; clients never need to reconcile an
// optimistic local echo.
//
// Membership is not checked before fan-out: sending into an existing room the
// session never joined is allowed; only a missing room record is an error.
type MessageRelay struct {
	registry     *Registry
	store        store.Store
	storeTimeout time.Duration
	log          *zerolog.Logger
}

func newMessageRelay(registry *Registry, st store.Store, storeTimeout time.Duration, logger *zerolog.Logger) *MessageRelay {
	return &MessageRelay{
		registry:     registry,
		store:        st,
		storeTimeout: storeTimeout,
		log:          logger,
	}
}

// Send validates, persists, and broadcasts one chat message.
// Messages from one sender are processed in call order.
func (m *MessageRelay) Send(ctx context.Context, c *Client, roomID, text string, replyTo *ReplyRef) {
	roomID = NormalizeRoomID(roomID)
	text = strings.TrimSpace(text)
	if roomID == "" || text == "" {
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeInvalidRequest, "room id and text are required")})
		return
	}

	sctx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()

	if _, err := m.store.FindRoom(sctx, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeRoomNotFound, "room not found")})
			return
		}
		m.log.Error().Err(err).Str("room", roomID).Msg("look up room")
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeStoreUnavailable, "failed to send message")})
		return
	}

	record := &store.Message{
		RoomID:    roomID,
		Text:      text,
		Sender:    AnonymousSender,
		ReplyTo:   m.flattenReply(sctx, roomID, replyTo),
		CreatedAt: time.Now().UTC(),
	}

	// Persistence assigns the durable id; without it there is nothing
	// authoritative to broadcast.
	id, err := m.store.AppendMessage(sctx, record)
	if err != nil {
		m.log.Error().Err(err).Str("room", roomID).Msg("append message")
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeStoreUnavailable, "failed to send message")})
		return
	}

	msg := &Message{
		ID:        id,
		Room:      roomID,
		Text:      record.Text,
		Sender:    record.Sender,
		CreatedAt: record.CreatedAt,
	}
	if record.ReplyTo != nil {
		msg.ReplyTo = &ReplyRef{
			ID:     record.ReplyTo.ID,
			Text:   record.ReplyTo.Text,
			Sender: record.ReplyTo.Sender,
		}
	}

	for _, member := range m.registry.Members(roomID) {
		member.deliver(&Event{Kind: EventMessageReceived, Room: roomID, Message: msg})
	}
}

// flattenReply resolves a reply reference to the immediate parent's own
// content. The stored parent is authoritative; the client-supplied fields are
// only a fallback when the parent is no longer stored. The result is always
// one level deep: the parent's own text and sender, never a grandparent's.
func (m *MessageRelay) flattenReply(ctx context.Context, roomID string, replyTo *ReplyRef) *store.ReplyRef {
	if replyTo == nil {
		return nil
	}

	if replyTo.ID != 0 {
		parent, err := m.store.GetMessage(ctx, roomID, replyTo.ID)
		if err == nil {
			return &store.ReplyRef{ID: parent.ID, Text: parent.Text, Sender: parent.Sender}
		}
		if !errors.Is(err, store.ErrNotFound) {
			m.log.Warn().Err(err).Str("room", roomID).Int64("parent_id", replyTo.ID).Msg("resolve reply parent")
		}
	}

	return &store.ReplyRef{ID: replyTo.ID, Text: replyTo.Text, Sender: AnonymousSender}
}
