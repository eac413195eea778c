package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/onetimechat/relay-server/internal/config"
	"github.com/onetimechat/relay-server/internal/core"
	"github.com/onetimechat/relay-server/internal/proto"
	"github.com/onetimechat/relay-server/internal/store"
	"github.com/onetimechat/relay-server/internal/store/sqlite"
	"github.com/rs/zerolog"
)

// newTestServer wires an in-memory store, a running hub, and the full router.
func newTestServer(t *testing.T, roomsPerMinute int) (*httptest.Server, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	hub := core.NewHub(st, time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	disabledLogger := zerolog.Nop()
	cfg := config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
		RoomsPerMinute:    roomsPerMinute,
	}

	server := NewServer(hub, st, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, st
}

type outboundEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntil reads outbound frames, discarding everything before the first
// frame of the wanted type.
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string) json.RawMessage {
	t.Helper()

	for {
		var outbound outboundEnvelope
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			t.Fatalf("read outbound while waiting for %q: %v", msgType, err)
		}
		if outbound.Type == msgType {
			return outbound.Data
		}
	}
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", msgType, err)
	}
}
