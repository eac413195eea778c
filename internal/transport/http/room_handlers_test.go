package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/onetimechat/relay-server/internal/store"
)

func TestCreateRoomGeneratesCode(t *testing.T) {
	ts, _ := newTestServer(t, 0)

	resp, err := ts.Client().Post(ts.URL+"/api/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var room RoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(room.RoomID) != 8 || room.RoomID != strings.ToUpper(room.RoomID) {
		t.Fatalf("expected an 8-char uppercase code, got %q", room.RoomID)
	}
	if !room.IsActive || room.ParticipantCount != 0 {
		t.Fatalf("unexpected new room: %+v", room)
	}
}

func TestCreateRoomWithExplicitID(t *testing.T) {
	ts, _ := newTestServer(t, 0)

	body := bytes.NewBufferString(`{"roomId":"my-room"}`)
	resp, err := ts.Client().Post(ts.URL+"/api/rooms", "application/json", body)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	var room RoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if room.RoomID != "MY-ROOM" {
		t.Fatalf("expected normalized room id, got %q", room.RoomID)
	}

	// Creating the same room again returns the existing record.
	body = bytes.NewBufferString(`{"roomId":"MY-ROOM"}`)
	resp2, err := ts.Client().Post(ts.URL+"/api/rooms", "application/json", body)
	if err != nil {
		t.Fatalf("create room again: %v", err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp2.StatusCode)
	}
	var again RoomResponse
	if err := json.NewDecoder(resp2.Body).Decode(&again); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if again.RoomID != room.RoomID || !again.CreatedAt.Equal(room.CreatedAt) {
		t.Fatalf("expected the existing record, got %+v vs %+v", again, room)
	}
}

func TestCreateRoomRateLimited(t *testing.T) {
	ts, _ := newTestServer(t, 1)

	resp, err := ts.Client().Post(ts.URL+"/api/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	resp, err = ts.Client().Post(ts.URL+"/api/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", resp.StatusCode)
	}
}

func TestGetRoom(t *testing.T) {
	ts, st := newTestServer(t, 0)

	if _, err := st.FindOrCreateRoom(context.Background(), "ABCD1234"); err != nil {
		t.Fatalf("seed room: %v", err)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/abcd1234")
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var room RoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if room.RoomID != "ABCD1234" {
		t.Fatalf("unexpected room: %+v", room)
	}

	resp2, err := ts.Client().Get(ts.URL + "/api/rooms/GHOST")
	if err != nil {
		t.Fatalf("get missing room: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp2.StatusCode)
	}
}

func TestGetRoomUsers(t *testing.T) {
	ts, st := newTestServer(t, 0)
	ctx := context.Background()

	if _, err := st.FindOrCreateRoom(ctx, "ABCD1234"); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if err := st.AddParticipant(ctx, "ABCD1234", "sess-a", time.Now().UTC()); err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	if err := st.UpdatePresence(ctx, "ABCD1234", 1, true); err != nil {
		t.Fatalf("seed presence: %v", err)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/ABCD1234/users")
	if err != nil {
		t.Fatalf("get users: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var users RoomUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if users.ParticipantCount != 1 || users.Participants != 1 {
		t.Fatalf("unexpected users response: %+v", users)
	}
}

func TestGetRoomMessages(t *testing.T) {
	ts, st := newTestServer(t, 0)
	ctx := context.Background()

	if _, err := st.FindOrCreateRoom(ctx, "ABCD1234"); err != nil {
		t.Fatalf("seed room: %v", err)
	}
	first, err := st.AppendMessage(ctx, &store.Message{
		RoomID:    "ABCD1234",
		Text:      "hello",
		Sender:    "anonymous",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	if _, err := st.AppendMessage(ctx, &store.Message{
		RoomID: "ABCD1234",
		Text:   "a reply",
		Sender: "anonymous",
		ReplyTo: &store.ReplyRef{
			ID:     first,
			Text:   "hello",
			Sender: "anonymous",
		},
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed reply: %v", err)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/rooms/ABCD1234/messages")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var messages []MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Text != "hello" || messages[0].ReplyTo != nil {
		t.Fatalf("unexpected first message: %+v", messages[0])
	}
	if messages[1].ReplyTo == nil || messages[1].ReplyTo.ID != first {
		t.Fatalf("unexpected reply ref: %+v", messages[1].ReplyTo)
	}

	resp2, err := ts.Client().Get(ts.URL + "/api/rooms/GHOST/messages")
	if err != nil {
		t.Fatalf("get messages of missing room: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp2.StatusCode)
	}
}

func TestDeleteRoom(t *testing.T) {
	ts, st := newTestServer(t, 0)

	if _, err := st.FindOrCreateRoom(context.Background(), "ABCD1234"); err != nil {
		t.Fatalf("seed room: %v", err)
	}

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/rooms/ABCD1234", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("delete room: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	resp2, err := ts.Client().Get(ts.URL + "/api/rooms/ABCD1234")
	if err != nil {
		t.Fatalf("get deleted room: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", resp2.StatusCode)
	}
}
