package core

import (
	"context"
	"sync"
	"time"

	"github.com/onetimechat/relay-server/internal/store"
	"github.com/rs/zerolog"
)

// Hub ties the relay together: it registers sessions, pumps their commands
// into the presence coordinator, message relay, and signaling relay, and
// supervises session lifecycles. An unregister, however abrupt the underlying
// disconnect, drives the same cleanup path as an explicit leave so no session
// is ever left behind in the registry.
type Hub struct {
	registry *Registry
	presence *Presence
	relay    *MessageRelay
	signals  *SignalingRelay
	log      *zerolog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub over the given store. storeTimeout bounds every
// durable read/write issued by the relay.
func NewHub(st store.Store, storeTimeout time.Duration, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}

	registry := NewRegistry()
	return &Hub{
		registry: registry,
		presence: newPresence(registry, st, storeTimeout, logger),
		relay:    newMessageRelay(registry, st, storeTimeout, logger),
		signals:  newSignalingRelay(registry, logger),
		log:      logger,
		clients:  make(map[*Client]struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled, then stops every session pump.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// RegisterClient admits a session and starts pumping its commands.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug().Str("session", c.ID).Msg("session registered")
	go h.pump(c)
}

// UnregisterClient removes a session from every room it occupied, emitting
// the departure notifications, and stops its pump. Safe to call once per
// session regardless of how the connection ended.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	h.presence.Disconnect(context.Background(), c)
	c.closeCommands()
	h.log.Debug().Str("session", c.ID).Msg("session unregistered")
}

// pump drains one session's commands in order, which is what gives a single
// sender its in-order message guarantee.
func (h *Hub) pump(c *Client) {
	for {
		select {
		case cmd, ok := <-c.Commands:
			if !ok {
				return
			}
			h.dispatch(c, cmd)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) dispatch(c *Client, cmd *Command) {
	ctx := context.Background()

	switch cmd.Kind {
	case CommandJoinRoom:
		h.presence.Join(ctx, c, cmd.Room)
	case CommandLeaveRoom:
		h.presence.Leave(ctx, c, cmd.Room)
	case CommandSendMessage:
		h.relay.Send(ctx, c, cmd.Room, cmd.Text, cmd.ReplyTo)
	case CommandOffer:
		h.signals.Relay(c, EventOfferReceived, cmd.Room, cmd.Payload)
	case CommandAnswer:
		h.signals.Relay(c, EventAnswerReceived, cmd.Room, cmd.Payload)
	case CommandICECandidate:
		h.signals.Relay(c, EventICECandidateReceived, cmd.Room, cmd.Payload)
	default:
		h.log.Warn().Str("session", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
		c.deliver(&Event{Kind: EventError, Error: coreError(ErrCodeInternal, "unknown command")})
	}
}
