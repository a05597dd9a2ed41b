package websocket

import (
	"fmt"

	"github.com/rs/zerolog"
)

// channelKey identifies one broadcast scope: one file within one room.
// Channels exist only in memory, for the lifetime of their subscribers.
type channelKey struct {
	RoomID   string
	Filename string
}

func (k channelKey) String() string {
	return fmt.Sprintf("%s/%s", k.RoomID, k.Filename)
}

// Hub owns channel membership and fans broadcasts out to subscribers.
// All maps are touched only by the Run loop; every mutation arrives
// through a channel, so subscribe/unsubscribe are atomic with respect
// to delivery.
type Hub struct {
	clients map[*Client]bool

	// channel -> set of subscribed connections
	subscriptions map[channelKey]map[*Client]bool

	// current channel of each subscribed connection
	membership map[*Client]channelKey

	register    chan *Client
	unregister  chan *Client
	subscribe   chan subscribeMsg
	broadcast   chan broadcastMsg
	statsParams chan chan map[string]int

	logger zerolog.Logger
}

type subscribeMsg struct {
	client *Client
	key    channelKey
}

type broadcastMsg struct {
	key     channelKey
	message Message
	// origin is excluded from delivery; nil means deliver to the
	// whole channel.
	origin *Client
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		subscriptions: make(map[channelKey]map[*Client]bool),
		membership:    make(map[*Client]channelKey),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan subscribeMsg),
		broadcast:     make(chan broadcastMsg, 256),
		statsParams:   make(chan chan map[string]int),
		logger:        logger,
	}
}

// Register adds a freshly upgraded connection to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection from the hub and from every channel
// it holds. Called on disconnect.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe binds a connection to the (room, file) channel. A
// connection holds at most one channel: rebinding atomically leaves
// the previous one.
func (h *Hub) Subscribe(client *Client, roomID string, filename string) {
	h.subscribe <- subscribeMsg{client: client, key: channelKey{RoomID: roomID, Filename: filename}}
}

// Broadcast delivers a message to every subscriber of the channel
// except origin. Pass a nil origin to reach the whole channel.
// Delivery is fire-and-forget: a subscriber with a full buffer is
// skipped, never waited on.
func (h *Hub) Broadcast(roomID string, filename string, message Message, origin *Client) {
	h.broadcast <- broadcastMsg{
		key:     channelKey{RoomID: roomID, Filename: filename},
		message: message,
		origin:  origin,
	}
}

// Stats reports the subscriber count per live channel.
func (h *Hub) Stats() map[string]int {
	reply := make(chan map[string]int, 1)
	h.statsParams <- reply
	return <-reply
}

// Run is the hub's event loop. It owns all membership state.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug().Str("clientId", client.ID).Int("total", len(h.clients)).Msg("Client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			delete(h.clients, client)
			h.leaveChannel(client)
			client.closeSend()
			h.logger.Info().Str("clientId", client.ID).Int("total", len(h.clients)).Msg("Client unregistered")

		case msg := <-h.subscribe:
			if _, ok := h.clients[msg.client]; !ok {
				continue
			}
			h.leaveChannel(msg.client)
			subs, ok := h.subscriptions[msg.key]
			if !ok {
				subs = make(map[*Client]bool)
				h.subscriptions[msg.key] = subs
			}
			subs[msg.client] = true
			h.membership[msg.client] = msg.key
			h.logger.Info().
				Str("clientId", msg.client.ID).
				Str("channel", msg.key.String()).
				Int("subscribers", len(subs)).
				Msg("Client subscribed to channel")

		case msg := <-h.broadcast:
			subs, ok := h.subscriptions[msg.key]
			if !ok {
				continue
			}
			for client := range subs {
				if client == msg.origin {
					continue
				}
				select {
				case client.Send <- msg.message:
				default:
					h.logger.Warn().
						Str("clientId", client.ID).
						Str("channel", msg.key.String()).
						Msg("Client send buffer full, message dropped")
				}
			}

		case reply := <-h.statsParams:
			stats := make(map[string]int, len(h.subscriptions))
			for key, subs := range h.subscriptions {
				stats[key.String()] = len(subs)
			}
			reply <- stats
		}
	}
}

// leaveChannel removes the client from its current channel, dropping
// the channel entirely once empty. Run-loop only.
func (h *Hub) leaveChannel(client *Client) {
	key, ok := h.membership[client]
	if !ok {
		return
	}
	delete(h.membership, client)
	subs, ok := h.subscriptions[key]
	if !ok {
		return
	}
	delete(subs, client)
	if len(subs) == 0 {
		delete(h.subscriptions, key)
		h.logger.Debug().Str("channel", key.String()).Msg("Removed empty channel")
	}
}
