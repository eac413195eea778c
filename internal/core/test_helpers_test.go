package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onetimechat/relay-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// waitFor polls until check passes or the deadline hits.
func waitFor(t *testing.T, check func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// memStore is an in-memory store.Store for hub tests.
type memStore struct {
	mu           sync.Mutex
	rooms        map[string]*store.Room
	participants map[string][]*store.Participant
	messages     map[string][]*store.Message
	nextID       int64

	// injected failures and delays
	presenceErr error
	lookupErr   error
	findDelay   time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[string]*store.Room),
		participants: make(map[string][]*store.Participant),
		messages:     make(map[string][]*store.Message),
	}
}

func (m *memStore) FindRoom(_ context.Context, roomID string) (*store.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	room, ok := m.rooms[roomID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (m *memStore) FindOrCreateRoom(_ context.Context, roomID string) (*store.Room, error) {
	m.mu.Lock()
	delay := m.findDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	room, ok := m.rooms[roomID]
	if !ok {
		room = &store.Room{RoomID: roomID, IsActive: true, CreatedAt: time.Now().UTC()}
		m.rooms[roomID] = room
	}
	copied := *room
	return &copied, nil
}

func (m *memStore) UpdatePresence(_ context.Context, roomID string, count int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presenceErr != nil {
		return m.presenceErr
	}
	if room, ok := m.rooms[roomID]; ok {
		room.ParticipantCount = count
		room.IsActive = active
	}
	return nil
}

func (m *memStore) AddParticipant(_ context.Context, roomID, sessionID string, joinedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.presenceErr != nil {
		return m.presenceErr
	}
	m.participants[roomID] = append(m.participants[roomID], &store.Participant{SessionID: sessionID, JoinedAt: joinedAt})
	return nil
}

func (m *memStore) RemoveParticipant(_ context.Context, roomID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.participants[roomID][:0]
	for _, p := range m.participants[roomID] {
		if p.SessionID != sessionID {
			kept = append(kept, p)
		}
	}
	m.participants[roomID] = kept
	return nil
}

func (m *memStore) ListParticipants(_ context.Context, roomID string) ([]*store.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*store.Participant(nil), m.participants[roomID]...), nil
}

func (m *memStore) DeleteRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	delete(m.participants, roomID)
	delete(m.messages, roomID)
	return nil
}

func (m *memStore) DeleteExpiredRooms(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, room := range m.rooms {
		if room.CreatedAt.Before(cutoff) {
			delete(m.rooms, id)
			delete(m.participants, id)
			delete(m.messages, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) AppendMessage(_ context.Context, msg *store.Message) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	copied := *msg
	copied.ID = m.nextID
	m.messages[msg.RoomID] = append(m.messages[msg.RoomID], &copied)
	return copied.ID, nil
}

func (m *memStore) GetMessage(_ context.Context, roomID string, id int64) (*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages[roomID] {
		if msg.ID == id {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListMessages(_ context.Context, roomID string, limit int) ([]*store.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[roomID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]*store.Message(nil), msgs...), nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) room(roomID string) *store.Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return nil
	}
	copied := *room
	return &copied
}

func (m *memStore) participantCount(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants[roomID])
}

func (m *memStore) setFindDelay(d time.Duration) {
	m.mu.Lock()
	m.findDelay = d
	m.mu.Unlock()
}

func (m *memStore) setLookupErr(err error) {
	m.mu.Lock()
	m.lookupErr = err
	m.mu.Unlock()
}
