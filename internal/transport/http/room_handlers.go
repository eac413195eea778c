package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/onetimechat/relay-server/internal/core"
	"github.com/onetimechat/relay-server/internal/store"
	"github.com/onetimechat/relay-server/internal/utils"
	"github.com/rs/zerolog"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store   store.Store
	limiter *rateLimiter
	log     *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance. roomsPerMinute caps
// room creation; 0 disables the cap.
func NewRoomHandlers(st store.Store, roomsPerMinute int, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store:   st,
		limiter: newRateLimiter(roomsPerMinute),
		log:     logger,
	}
}

// CreateRoomRequest represents the create room request body.
// RoomID is optional; a short code is generated when absent.
type CreateRoomRequest struct {
	RoomID string `json:"roomId"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	RoomID           string    `json:"roomId"`
	CreatedAt        time.Time `json:"createdAt"`
	ParticipantCount int       `json:"participantCount"`
	IsActive         bool      `json:"isActive"`
}

// RoomUsersResponse reports live and historical participation for a room.
type RoomUsersResponse struct {
	ParticipantCount int `json:"participantCount"`
	Participants     int `json:"participants"`
}

// MessageResponse represents a stored message in API responses. The shape
// matches the message-received broadcast payload.
type MessageResponse struct {
	ID        int64         `json:"id"`
	Text      string        `json:"text"`
	Sender    string        `json:"sender"`
	Timestamp time.Time     `json:"timestamp"`
	ReplyTo   *ReplyRefBody `json:"replyTo,omitempty"`
}

// ReplyRefBody is the flattened parent reference of a reply.
type ReplyRefBody struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateRoom handles room creation. Creating a room that already exists
// returns the existing record.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	if !h.limiter.allow() {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many rooms created, slow down"})
		return
	}

	var req CreateRoomRequest
	// An empty body is fine; the room code is generated then.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Debug().Err(err).Msg("invalid create room request")
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	roomID := core.NormalizeRoomID(req.RoomID)
	if roomID == "" {
		roomID = utils.NewRoomCode()
	}

	room, err := h.store.FindOrCreateRoom(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to create room"})
		return
	}

	h.log.Info().Str("room", room.RoomID).Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(room))
}

// GetRoom returns room metadata.
// GET /api/rooms/:roomId
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := core.NormalizeRoomID(c.Param("roomId"))

	room, err := h.store.FindRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get room"})
		return
	}

	c.JSON(http.StatusOK, roomResponse(room))
}

// GetRoomUsers returns the live participant count and the size of the
// historical join log.
// GET /api/rooms/:roomId/users
func (h *RoomHandlers) GetRoomUsers(c *gin.Context) {
	roomID := core.NormalizeRoomID(c.Param("roomId"))

	room, err := h.store.FindRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get users"})
		return
	}

	participants, err := h.store.ListParticipants(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to list participants")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get users"})
		return
	}

	c.JSON(http.StatusOK, RoomUsersResponse{
		ParticipantCount: room.ParticipantCount,
		Participants:     len(participants),
	})
}

// GetRoomMessages returns the room's message history in append order.
// GET /api/rooms/:roomId/messages?limit=N
func (h *RoomHandlers) GetRoomMessages(c *gin.Context) {
	roomID := core.NormalizeRoomID(c.Param("roomId"))

	if _, err := h.store.FindRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get messages"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	messages, err := h.store.ListMessages(c.Request.Context(), roomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get messages"})
		return
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp := MessageResponse{
			ID:        msg.ID,
			Text:      msg.Text,
			Sender:    msg.Sender,
			Timestamp: msg.CreatedAt,
		}
		if msg.ReplyTo != nil {
			resp.ReplyTo = &ReplyRefBody{
				ID:     msg.ReplyTo.ID,
				Text:   msg.ReplyTo.Text,
				Sender: msg.ReplyTo.Sender,
			}
		}
		out = append(out, resp)
	}

	c.JSON(http.StatusOK, out)
}

// DeleteRoom removes a room and its messages.
// DELETE /api/rooms/:roomId
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	roomID := core.NormalizeRoomID(c.Param("roomId"))

	if err := h.store.DeleteRoom(c.Request.Context(), roomID); err != nil {
		h.log.Error().Err(err).Str("room", roomID).Msg("failed to delete room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete room"})
		return
	}

	h.log.Info().Str("room", roomID).Msg("room deleted")
	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		RoomID:           room.RoomID,
		CreatedAt:        room.CreatedAt,
		ParticipantCount: room.ParticipantCount,
		IsActive:         room.IsActive,
	}
}
