package websocket

import (
	"coderoom/internal/api/service"
	"coderoom/internal/runner"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Processor executes the events that touch storage or spawn processes.
// Edit deltas never come through here; they take the relay fast path.
type Processor struct {
	rooms  *service.RoomService
	runner *runner.Runner
	bridge *SaveBridge
	logger zerolog.Logger
}

func NewProcessor(rooms *service.RoomService, r *runner.Runner, logger zerolog.Logger) *Processor {
	return &Processor{
		rooms:  rooms,
		runner: r,
		logger: logger,
	}
}

// UseBridge routes save acknowledgments through NATS instead of the
// local hub, so every server instance delivers them.
func (p *Processor) UseBridge(b *SaveBridge) {
	p.bridge = b
}

func (p *Processor) Process(c *Client, msg Message) {
	switch msg.Type {
	case EventJoinDoc:
		p.processJoinDoc(c, msg)
	case EventSaveDoc:
		p.processSaveDoc(c, msg)
	case EventRunCode:
		p.processRunCode(c, msg)
	default:
		c.sendError(msg.RoomID, msg.Filename, fmt.Sprintf("Unknown event type %q", msg.Type))
	}
}

func decodeData(msg Message, out any) error {
	dataBytes, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal message data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, out); err != nil {
		return fmt.Errorf("invalid message data: %w", err)
	}

	return nil
}

// processJoinDoc authenticates the connection into a room, subscribes
// it to the file's channel and replies with the full document state.
// Failures go only to the requester.
func (p *Processor) processJoinDoc(c *Client, msg Message) {
	var req JoinDoc
	if err := decodeData(msg, &req); err != nil {
		c.sendError(msg.RoomID, msg.Filename, "Invalid join-doc payload")
		return
	}
	if req.RoomID == "" || req.Filename == "" {
		c.sendError(req.RoomID, req.Filename, "Room ID and filename are required")
		return
	}

	if !c.preAuthorized(req.RoomID) {
		if _, err := p.rooms.JoinRoom(req.RoomID, req.Password); err != nil {
			switch {
			case errors.Is(err, service.ErrRoomNotFound):
				c.sendError(req.RoomID, req.Filename, "Room not found")
			case errors.Is(err, service.ErrInvalidCredentials):
				c.sendError(req.RoomID, req.Filename, "Invalid room credentials")
			default:
				p.logger.Error().Err(err).Str("roomId", req.RoomID).Msg("join-doc failed")
				c.sendError(req.RoomID, req.Filename, "Failed to join room")
			}
			return
		}
	}

	file, err := p.rooms.Load(req.RoomID, req.Filename)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.sendError(req.RoomID, req.Filename, "Room not found")
		case errors.Is(err, service.ErrFileNotFound):
			c.sendError(req.RoomID, req.Filename, "File not found")
		default:
			p.logger.Error().Err(err).Str("roomId", req.RoomID).Str("filename", req.Filename).Msg("Failed to load document")
			c.sendError(req.RoomID, req.Filename, "Failed to load document")
		}
		return
	}

	c.hub.Subscribe(c, req.RoomID, req.Filename)
	c.bind(req.RoomID, req.Filename)

	c.deliver(Message{
		Type:      EventDocLoad,
		RoomID:    req.RoomID,
		Filename:  req.Filename,
		Timestamp: time.Now(),
		Data: DocLoad{
			Filename: file.Filename,
			Content:  file.Content,
			Notes:    file.Notes,
			Language: file.Language,
		},
	})

	p.logger.Info().
		Str("clientId", c.ID).
		Str("roomId", req.RoomID).
		Str("filename", req.Filename).
		Msg("Client joined document")
}

// processSaveDoc persists the document and acknowledges to the whole
// channel, the saver included.
func (p *Processor) processSaveDoc(c *Client, msg Message) {
	roomID, filename, ok := c.channel()
	if !ok {
		c.sendError(msg.RoomID, msg.Filename, "Not subscribed to a document")
		return
	}
	if msg.RoomID != roomID || msg.Filename != filename {
		c.sendError(msg.RoomID, msg.Filename, "Message does not match subscribed document")
		return
	}

	var req SaveDoc
	if err := decodeData(msg, &req); err != nil {
		c.sendError(roomID, filename, "Invalid save-doc payload")
		return
	}

	if err := p.rooms.Save(roomID, filename, req.Content, req.Notes); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.sendError(roomID, filename, "Room not found")
		case errors.Is(err, service.ErrFileNotFound):
			c.sendError(roomID, filename, "File not found")
		default:
			// Storage detail stays in the logs.
			p.logger.Error().Err(err).Str("roomId", roomID).Str("filename", filename).Msg("Failed to save document")
			c.sendError(roomID, filename, "Failed to save document")
		}
		return
	}

	if p.bridge != nil {
		if err := p.bridge.PublishSaved(roomID, filename); err != nil {
			p.logger.Error().Err(err).Str("roomId", roomID).Msg("Failed to publish save acknowledgment")
		}
		return
	}
	c.hub.Broadcast(roomID, filename, NewDocSavedMessage(roomID, filename), nil)
}

// processRunCode starts an execution job and streams its output back
// to the requesting connection only. Compile failures and nonzero exit
// codes ride the normal output stream; only "could not start at all"
// conditions become error-msg events.
func (p *Processor) processRunCode(c *Client, msg Message) {
	roomID, filename, ok := c.channel()
	if !ok {
		c.sendError(msg.RoomID, msg.Filename, "Not subscribed to a document")
		return
	}

	var req RunCode
	if err := decodeData(msg, &req); err != nil {
		c.sendError(roomID, filename, "Invalid run-code payload")
		return
	}
	if req.Filename == "" {
		req.Filename = filename
	}

	job, events, err := p.runner.Run(context.Background(), req.Filename, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrUnsupportedLanguage):
			c.sendError(roomID, filename, fmt.Sprintf("Unsupported language: %s", req.Filename))
		case errors.Is(err, runner.ErrBusy):
			c.sendError(roomID, filename, "Too many jobs running, please try again")
		default:
			p.logger.Error().Err(err).Str("filename", req.Filename).Msg("Failed to start job")
			c.sendError(roomID, filename, "Failed to start job")
		}
		return
	}

	p.logger.Info().
		Str("clientId", c.ID).
		Str("jobId", job.ID).
		Str("filename", req.Filename).
		Msg("Execution job started")

	// Drain in a separate goroutine: a long-running job must not block
	// this connection's save/join processing.
	go func() {
		for ev := range events {
			switch ev.Kind {
			case runner.EventStdout, runner.EventStderr, runner.EventCompileError:
				c.deliver(Message{
					Type:      EventTerminalOutput,
					RoomID:    roomID,
					Filename:  req.Filename,
					Timestamp: time.Now(),
					Data: TerminalChunk{
						JobID:  job.ID,
						Stream: string(ev.Kind),
						Chunk:  ev.Line,
					},
				})
			case runner.EventExit:
				c.deliver(Message{
					Type:      EventTerminalOutput,
					RoomID:    roomID,
					Filename:  req.Filename,
					Timestamp: time.Now(),
					Data: TerminalExit{
						JobID:    job.ID,
						ExitCode: ev.ExitCode,
						Done:     true,
					},
				})
			}
		}
	}()
}
