package core

import (
	"strings"
	"sync"
)

// NormalizeRoomID canonicalizes a room token: trimmed, upper-case.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// RoomCount pairs a room with its member count after a registry mutation.
type RoomCount struct {
	Room  string
	Count int
}

// Registry is the process-wide mapping from room id to the set of
// currently-connected sessions. It is the real-time source of truth for
// presence; the store only mirrors it. All operations are idempotent.
//
// Invariant: a room key is removed the moment its set becomes empty, so no
// entry ever maps to an empty set.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Add inserts a session into a room. Returns true if newly added;
// adding an already-present session is a no-op.
func (r *Registry) Add(room string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	if _, exists := members[c]; exists {
		return false
	}
	members[c] = struct{}{}
	return true
}

// Remove deletes a session from a room and reports whether it was present,
// together with the remaining member count. Removing an absent session is a
// no-op.
func (r *Registry) Remove(room string, c *Client) (bool, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(room, c)
}

func (r *Registry) removeLocked(room string, c *Client) (bool, int) {
	members, ok := r.rooms[room]
	if !ok {
		return false, 0
	}
	if _, exists := members[c]; !exists {
		return false, len(members)
	}
	delete(members, c)
	remaining := len(members)
	if remaining == 0 {
		delete(r.rooms, room)
	}
	return true, remaining
}

// Count returns the number of live sessions in a room.
func (r *Registry) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Members returns a snapshot of the sessions currently in a room.
func (r *Registry) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Client, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		members = append(members, c)
	}
	return members
}

// Rooms returns the rooms a session currently belongs to
// (at most one in practice).
func (r *Registry) Rooms(c *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var rooms []string
	for room, members := range r.rooms {
		if _, ok := members[c]; ok {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// RemoveFromAll removes a session from every room it belongs to in one
// registry transaction and returns each affected room with its post-removal
// count, so a caller can emit exactly one departure notification per room.
func (r *Registry) RemoveFromAll(c *Client) []RoomCount {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []RoomCount
	for room, members := range r.rooms {
		if _, ok := members[c]; !ok {
			continue
		}
		_, remaining := r.removeLocked(room, c)
		affected = append(affected, RoomCount{Room: room, Count: remaining})
	}
	return affected
}
