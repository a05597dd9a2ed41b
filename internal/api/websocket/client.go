package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB
)

// Client is one websocket connection. It is owned by the transport
// layer and destroyed on disconnect; the channel binding below is its
// session state.
type Client struct {
	ID           string
	hub          *Hub
	conn         *websocket.Conn
	Send         chan Message
	processor    *Processor
	processQueue chan Message
	logger       zerolog.Logger

	// preAuthRoom is set when the connection presented a valid room
	// token at upgrade time; join-doc for that room then needs no
	// password.
	preAuthRoom string

	mu            sync.Mutex
	roomID        string
	filename      string
	authenticated bool
	closed        bool
}

func NewClient(id string, hub *Hub, conn *websocket.Conn, processor *Processor, preAuthRoom string, logger zerolog.Logger) *Client {
	client := &Client{
		ID:           id,
		hub:          hub,
		conn:         conn,
		Send:         make(chan Message, 256),
		processor:    processor,
		processQueue: make(chan Message, 100),
		preAuthRoom:  preAuthRoom,
		logger:       logger,
	}

	// Sequential worker: persistence-touching events of one connection
	// are processed in arrival order.
	go client.processWorker()

	return client
}

// bind records the channel this connection is subscribed to. Called by
// the processor after a successful join.
func (c *Client) bind(roomID string, filename string) {
	c.mu.Lock()
	c.roomID = roomID
	c.filename = filename
	c.authenticated = true
	c.mu.Unlock()
}

// channel returns the bound (room, file) pair, and whether the
// connection has authenticated into one.
func (c *Client) channel() (string, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID, c.filename, c.authenticated
}

func (c *Client) preAuthorized(roomID string) bool {
	return c.preAuthRoom != "" && c.preAuthRoom == roomID
}

// deliver sends a message to this connection only, dropping it if the
// buffer is full. Unlike hub broadcasts, deliver is called from outside
// the hub's run loop (job drain goroutines, the process worker), so it
// holds the mutex that closeSend closes under: a message for a
// disconnected client is dropped, never sent on the closed channel.
func (c *Client) deliver(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
		c.logger.Warn().Str("clientId", c.ID).Str("type", string(msg.Type)).Msg("Client send buffer full, message dropped")
	}
}

// closeSend closes the send channel exactly once. Called only by the
// hub's run loop on unregister.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) sendError(roomID string, filename string, text string) {
	c.deliver(NewErrorMessage(roomID, filename, text))
}

func (c *Client) ReadPump() {
	defer func() {
		close(c.processQueue)
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error().Err(err).Str("clientId", c.ID).Msg("WebSocket read error")
			}
			break
		}

		var msg Message
		if err = json.Unmarshal(messageBytes, &msg); err != nil {
			c.logger.Error().Err(err).Str("clientId", c.ID).Msg("Failed to unmarshal message")
			c.sendError("", "", "Invalid message format")
			continue
		}
		msg.Timestamp = time.Now()

		// Fast path: edit deltas are relayed without touching storage.
		switch msg.Type {
		case EventContentChange:
			c.relay(msg, EventRemoteContentChange)
			continue
		case EventNotesChange:
			c.relay(msg, EventRemoteNotesChange)
			continue
		}

		// Slow path: join/save/run are processed sequentially so
		// storage operations of one connection keep their order.
		select {
		case c.processQueue <- msg:
		default:
			c.logger.Warn().
				Str("clientId", c.ID).
				Str("type", string(msg.Type)).
				Msg("Process queue full, dropping message")
			c.sendError(msg.RoomID, msg.Filename, "Server is busy, please try again")
		}
	}
}

// relay forwards an edit delta to every other subscriber of the bound
// channel. The originating connection never receives its own delta
// back.
func (c *Client) relay(msg Message, as EventType) {
	roomID, filename, ok := c.channel()
	if !ok {
		c.sendError(msg.RoomID, msg.Filename, "Not subscribed to a document")
		return
	}
	if msg.RoomID != roomID || msg.Filename != filename {
		c.sendError(msg.RoomID, msg.Filename, "Message does not match subscribed document")
		return
	}

	out := Message{
		Type:      as,
		RoomID:    roomID,
		Filename:  filename,
		Timestamp: msg.Timestamp,
		Data:      msg.Data,
	}
	c.hub.Broadcast(roomID, filename, out, c)
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			messageBytes, err := json.Marshal(message)
			if err != nil {
				c.logger.Error().Err(err).Msg("Failed to marshal message")
				continue
			}

			w.Write(messageBytes)

			// Add queued messages to the current websocket message
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				msg := <-c.Send
				msgBytes, _ := json.Marshal(msg)
				w.Write(msgBytes)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processWorker drains the sequential queue.
func (c *Client) processWorker() {
	for msg := range c.processQueue {
		if c.processor != nil {
			c.processor.Process(c, msg)
		}
	}
}
