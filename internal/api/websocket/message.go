package websocket

import (
	"time"
)

// Position is a zero-based (line, column) pair in a file.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// ContentDelta describes one localized text change: the range
// [From, To) is replaced by Text (one element per line). Origin tags
// the connection that produced the delta; receivers filter on it
// instead of toggling any shared suppression flag, and a client
// applying a remote delta scopes its own change suppression to that
// single apply call.
//
// Deltas from different senders may interleave arbitrarily at
// different receivers. Two simultaneous overlapping deltas can leave
// receivers in different final states; no convergence is provided.
type ContentDelta struct {
	From   Position `json:"from"`
	To     Position `json:"to"`
	Text   []string `json:"text"`
	Origin string   `json:"origin"`
}

// NotesUpdate is a whole-value replacement of a file's notes pane.
type NotesUpdate struct {
	Notes string `json:"notes"`
}

// JoinDoc carries the credentials and target file of a join request.
// Password may be empty when the connection was pre-authorized with a
// room token at upgrade time.
type JoinDoc struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Filename string `json:"filename"`
}

// DocLoad is the reply to a successful join: the full file state.
type DocLoad struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Notes    string `json:"notes"`
	Language string `json:"language"`
}

// SaveDoc carries the full content and notes to persist.
type SaveDoc struct {
	Content string `json:"content"`
	Notes   string `json:"notes"`
}

// RunCode asks the server to execute the given content as the named
// file. Execution output goes only to the requesting connection.
type RunCode struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// TerminalChunk is one line of process output.
type TerminalChunk struct {
	JobID  string `json:"jobId"`
	Stream string `json:"stream"`
	Chunk  string `json:"chunk"`
}

// TerminalExit terminates the output stream of a job.
type TerminalExit struct {
	JobID    string `json:"jobId"`
	ExitCode int    `json:"exitCode"`
	Done     bool   `json:"done"`
}

// ErrorPayload is delivered only to the requesting connection, never
// broadcast to a channel.
type ErrorPayload struct {
	Message string `json:"message"`
}

func NewErrorMessage(roomID string, filename string, text string) Message {
	return Message{
		Type:      EventError,
		RoomID:    roomID,
		Filename:  filename,
		Timestamp: time.Now(),
		Data:      ErrorPayload{Message: text},
	}
}

func NewDocSavedMessage(roomID string, filename string) Message {
	return Message{
		Type:      EventDocSaved,
		RoomID:    roomID,
		Filename:  filename,
		Timestamp: time.Now(),
	}
}
