package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// savedSubject carries save acknowledgments between server instances.
// Room ids are user-chosen and may contain subject-breaking characters,
// so they travel in the payload rather than in the subject.
const savedSubject = "coderoom.doc.saved"

type savedEvent struct {
	RoomID   string `json:"roomId"`
	Filename string `json:"filename"`
}

// SaveBridge fans doc-saved acknowledgments out through NATS so that
// subscribers connected to any server instance receive them.
type SaveBridge struct {
	conn   *nats.Conn
	hub    *Hub
	logger zerolog.Logger
}

func NewSaveBridge(natsURL string, hub *Hub, logger zerolog.Logger) (*SaveBridge, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &SaveBridge{conn: nc, hub: hub, logger: logger}, nil
}

// PublishSaved announces a successful save. The local hub receives it
// through Subscribe like every other instance.
func (b *SaveBridge) PublishSaved(roomID string, filename string) error {
	data, err := json.Marshal(savedEvent{RoomID: roomID, Filename: filename})
	if err != nil {
		return fmt.Errorf("marshal saved event: %w", err)
	}
	return b.conn.Publish(savedSubject, data)
}

// Subscribe forwards incoming save acknowledgments to the hub, to the
// entire channel of the saved file.
func (b *SaveBridge) Subscribe() error {
	_, err := b.conn.Subscribe(savedSubject, func(msg *nats.Msg) {
		var ev savedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Error().Err(err).Msg("nats: bad saved event payload")
			return
		}
		b.hub.Broadcast(ev.RoomID, ev.Filename, NewDocSavedMessage(ev.RoomID, ev.Filename), nil)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", savedSubject, err)
	}

	b.logger.Info().Str("subject", savedSubject).Msg("Save bridge subscribed")
	return nil
}

// Close drains the NATS connection.
func (b *SaveBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("nats drain failed")
	}
}
