package core

import (
	"context"
	"sync"
	"time"

	"github.com/onetimechat/relay-server/internal/store"
	"github.com/rs/zerolog"
)

// Presence owns join/leave/disconnect transitions: it mutates the registry,
// mirrors counts into the store, and emits the membership notifications.
//
// Compound transitions on one room are serialized by a per-room lock;
// different rooms proceed in parallel. Count and participant writes run
// inside the room section so persisted counts follow transition order, but
// under a bounded timeout: a slow or failed write is logged and skipped,
// never allowed to block joins or leaves, and the live broadcast goes out
// regardless.
type Presence struct {
	registry     *Registry
	store        store.Store
	storeTimeout time.Duration
	log          *zerolog.Logger

	mu    sync.Mutex
	locks map[string]*roomLock
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

func newPresence(registry *Registry, st store.Store, storeTimeout time.Duration, logger *zerolog.Logger) *Presence {
	return &Presence{
		registry:     registry,
		store:        st,
		storeTimeout: storeTimeout,
		log:          logger,
		locks:        make(map[string]*roomLock),
	}
}

// lockRoom acquires the critical section for one room and returns its release
// function. Lock entries are refcounted so idle rooms hold no memory.
func (p *Presence) lockRoom(room string) func() {
	p.mu.Lock()
	l, ok := p.locks[room]
	if !ok {
		l = &roomLock{}
		p.locks[room] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, room)
		}
		p.mu.Unlock()
	}
}

func (p *Presence) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.storeTimeout)
}

// Join subscribes the session to a room, creating the durable record when
// absent. The ack to the joiner and the broadcast to the others both carry
// the post-join count. A session already in another room leaves it first;
// re-joining the same room only re-acks.
func (p *Presence) Join(ctx context.Context, c *Client, roomID string) {
	roomID = NormalizeRoomID(roomID)
	if roomID == "" {
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeInvalidRequest, "room id is required")})
		return
	}

	// Join is the one store-dependent transition: without the room record
	// there is nothing to acknowledge. The record is secured before any
	// membership changes, so a failed lookup leaves the prior room intact,
	// and outside the critical section, so the room lock is never held
	// across a slow store call.
	sctx, cancel := p.storeCtx(ctx)
	_, err := p.store.FindOrCreateRoom(sctx, roomID)
	cancel()
	if err != nil {
		p.log.Error().Err(err).Str("room", roomID).Str("session", c.ID).Msg("find or create room")
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeStoreUnavailable, "failed to join room")})
		return
	}

	// One room per session: joining elsewhere implies leaving here.
	for _, prior := range p.registry.Rooms(c) {
		if prior != roomID {
			p.depart(ctx, c, prior, false)
		}
	}

	unlock := p.lockRoom(roomID)
	defer unlock()

	added := p.registry.Add(roomID, c)
	count := p.registry.Count(roomID)

	c.deliver(&Event{Kind: EventRoomJoined, Room: roomID, Count: count})
	if !added {
		return
	}
	for _, member := range p.registry.Members(roomID) {
		if member != c {
			member.deliver(&Event{Kind: EventUserJoined, Room: roomID, Count: count})
		}
	}

	sctx, cancel = p.storeCtx(ctx)
	defer cancel()
	if err := p.store.AddParticipant(sctx, roomID, c.ID, time.Now().UTC()); err != nil {
		p.log.Warn().Err(err).Str("room", roomID).Str("session", c.ID).Msg("record participant")
	}
	if err := p.store.UpdatePresence(sctx, roomID, count, true); err != nil {
		p.log.Warn().Err(err).Str("room", roomID).Int("count", count).Msg("persist participant count")
	}
}

// Leave handles an explicit leave. Leaving a room the session is not in,
// or a blank room id, is a silent no-op.
func (p *Presence) Leave(ctx context.Context, c *Client, roomID string) {
	roomID = NormalizeRoomID(roomID)
	if roomID == "" {
		return
	}
	p.depart(ctx, c, roomID, true)
}

// Disconnect drives the same cleanup as leave for every room the session
// belonged to. There is no session left to acknowledge; only the user-left
// broadcast is emitted per affected room. Each departure runs under the
// room's critical section, so a join racing with the disconnect observes
// the removal and its count as one transition.
func (p *Presence) Disconnect(ctx context.Context, c *Client) {
	for _, room := range p.registry.Rooms(c) {
		p.depart(ctx, c, room, false)
	}
}

func (p *Presence) depart(ctx context.Context, c *Client, roomID string, explicit bool) {
	unlock := p.lockRoom(roomID)
	defer unlock()

	removed, remaining := p.registry.Remove(roomID, c)
	if !removed {
		return
	}

	for _, member := range p.registry.Members(roomID) {
		member.deliver(&Event{Kind: EventUserLeft, Room: roomID, Count: remaining})
	}
	if explicit {
		c.deliver(&Event{Kind: EventRoomLeft, Room: roomID})
	}

	p.persistLeave(ctx, c, roomID, remaining)
}

func (p *Presence) persistLeave(ctx context.Context, c *Client, roomID string, remaining int) {
	sctx, cancel := p.storeCtx(ctx)
	defer cancel()

	if err := p.store.RemoveParticipant(sctx, roomID, c.ID); err != nil {
		p.log.Warn().Err(err).Str("room", roomID).Str("session", c.ID).Msg("remove participant")
	}
	// The room goes inactive once observed empty.
	if err := p.store.UpdatePresence(sctx, roomID, remaining, remaining > 0); err != nil {
		p.log.Warn().Err(err).Str("room", roomID).Int("count", remaining).Msg("persist participant count")
	}
}
