package websocket

import (
	"time"
)

// Message is the envelope of every event on a connection. Data uses
// 'any' so different payload types travel through the same channels.
type Message struct {
	Type      EventType `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	Filename  string    `json:"filename,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// EventType names one event of the channel protocol.
type EventType string

const (
	// Client to server
	EventJoinDoc       EventType = "join-doc"
	EventContentChange EventType = "content-change"
	EventNotesChange   EventType = "notes-change"
	EventSaveDoc       EventType = "save-doc"
	EventRunCode       EventType = "run-code"

	// Server to client
	EventDocLoad             EventType = "doc-load"
	EventRemoteContentChange EventType = "remote-content-change"
	EventRemoteNotesChange   EventType = "remote-notes-change"
	EventDocSaved            EventType = "doc-saved"
	EventTerminalOutput      EventType = "terminal-output"
	EventError               EventType = "error-msg"
)
