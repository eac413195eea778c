package core

import "sync"

const (
	commandBuffer = 8
	eventBuffer   = 32
)

// Client is one live connection (a session handle) as seen by the core layer.
// It holds no identity beyond its opaque ID.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
func NewClient(id string) *Client {
	return &Client{
		ID:       id,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
	}
}

// deliver hands an event to the client without blocking.
// A slow or dead recipient must not stall the emitter; its events are dropped.
func (c *Client) deliver(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

func (c *Client) closeCommands() {
	c.closeOnce.Do(func() {
		close(c.Commands)
	})
}
