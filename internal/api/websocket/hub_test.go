package websocket

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, hub *Hub) *Client {
	return NewClient(id, hub, nil, nil, "", zerolog.Nop())
}

// waitForSubscribers blocks until the channel reports the expected
// subscriber count, Stats being answered by the run loop itself.
func waitForSubscribers(t *testing.T, hub *Hub, channel string, count int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return hub.Stats()[channel] == count
	}, 2*time.Second, 10*time.Millisecond)
}

func receiveMessage(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s received no message", c.ID)
		return Message{}
	}
}

func assertNothingDelivered(t *testing.T, c *Client) {
	t.Helper()

	select {
	case msg := <-c.Send:
		t.Fatalf("client %s unexpectedly received %s", c.ID, msg.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_BroadcastExcludesOrigin(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	c := newTestClient("c", hub)
	for _, client := range []*Client{a, b, c} {
		hub.Register(client)
		hub.Subscribe(client, "room-1", "main.py")
	}
	waitForSubscribers(t, hub, "room-1/main.py", 3)

	msg := Message{Type: EventRemoteContentChange, RoomID: "room-1", Filename: "main.py"}
	hub.Broadcast("room-1", "main.py", msg, a)

	assert.Equal(t, EventRemoteContentChange, receiveMessage(t, b).Type)
	assert.Equal(t, EventRemoteContentChange, receiveMessage(t, c).Type)
	assertNothingDelivered(t, a)
}

func TestHub_BroadcastNilOriginReachesWholeChannel(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	for _, client := range []*Client{a, b} {
		hub.Register(client)
		hub.Subscribe(client, "room-1", "main.py")
	}
	waitForSubscribers(t, hub, "room-1/main.py", 2)

	hub.Broadcast("room-1", "main.py", NewDocSavedMessage("room-1", "main.py"), nil)

	assert.Equal(t, EventDocSaved, receiveMessage(t, a).Type)
	assert.Equal(t, EventDocSaved, receiveMessage(t, b).Type)
}

func TestHub_ChannelsAreIsolated(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(a, "room-1", "main.py")
	hub.Subscribe(b, "room-1", "util.py")
	waitForSubscribers(t, hub, "room-1/main.py", 1)
	waitForSubscribers(t, hub, "room-1/util.py", 1)

	msg := Message{Type: EventRemoteContentChange, RoomID: "room-1", Filename: "main.py"}
	hub.Broadcast("room-1", "main.py", msg, nil)

	assert.Equal(t, EventRemoteContentChange, receiveMessage(t, a).Type)
	assertNothingDelivered(t, b)
}

func TestHub_ResubscribeLeavesPreviousChannel(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	hub.Register(a)
	hub.Subscribe(a, "room-1", "main.py")
	waitForSubscribers(t, hub, "room-1/main.py", 1)

	hub.Subscribe(a, "room-1", "util.py")
	waitForSubscribers(t, hub, "room-1/util.py", 1)

	// The old channel is dropped once its last subscriber leaves.
	stats := hub.Stats()
	assert.NotContains(t, stats, "room-1/main.py")

	hub.Broadcast("room-1", "main.py", NewDocSavedMessage("room-1", "main.py"), nil)
	assertNothingDelivered(t, a)
}

func TestHub_UnregisterRemovesSubscription(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	hub.Register(a)
	hub.Register(b)
	hub.Subscribe(a, "room-1", "main.py")
	hub.Subscribe(b, "room-1", "main.py")
	waitForSubscribers(t, hub, "room-1/main.py", 2)

	hub.Unregister(a)
	waitForSubscribers(t, hub, "room-1/main.py", 1)

	// Unregister closes the send channel of the departed client.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-a.Send:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast("room-1", "main.py", NewDocSavedMessage("room-1", "main.py"), nil)
	assert.Equal(t, EventDocSaved, receiveMessage(t, b).Type)
}

func TestClient_RelayToPeers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	for _, client := range []*Client{a, b} {
		hub.Register(client)
		hub.Subscribe(client, "room-1", "main.py")
		client.bind("room-1", "main.py")
	}
	waitForSubscribers(t, hub, "room-1/main.py", 2)

	delta := map[string]any{"text": []string{"x = 1"}, "origin": "+input"}
	a.relay(Message{Type: EventContentChange, RoomID: "room-1", Filename: "main.py", Data: delta}, EventRemoteContentChange)

	got := receiveMessage(t, b)
	assert.Equal(t, EventRemoteContentChange, got.Type)
	assert.Equal(t, "room-1", got.RoomID)
	assert.Equal(t, "main.py", got.Filename)
	assertNothingDelivered(t, a)
}

func TestClient_RelayRejectsUnboundConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	hub.Register(a)

	a.relay(Message{Type: EventContentChange, RoomID: "room-1", Filename: "main.py"}, EventRemoteContentChange)

	got := receiveMessage(t, a)
	assert.Equal(t, EventError, got.Type)
}

func TestClient_RelayRejectsChannelMismatch(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()

	a := newTestClient("a", hub)
	b := newTestClient("b", hub)
	for _, client := range []*Client{a, b} {
		hub.Register(client)
	}
	hub.Subscribe(a, "room-1", "main.py")
	hub.Subscribe(b, "room-2", "main.py")
	a.bind("room-1", "main.py")
	b.bind("room-2", "main.py")
	waitForSubscribers(t, hub, "room-2/main.py", 1)

	// A claims room-2's document without being bound to it.
	a.relay(Message{Type: EventContentChange, RoomID: "room-2", Filename: "main.py"}, EventRemoteContentChange)

	got := receiveMessage(t, a)
	assert.Equal(t, EventError, got.Type)
	assertNothingDelivered(t, b)
}
