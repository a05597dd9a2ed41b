package websocket

import (
	"testing"
	"time"

	"coderoom/internal/runner"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor() (*Processor, *Hub) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	r := runner.New(2, 10*time.Second, "", zerolog.Nop())
	return NewProcessor(nil, r, zerolog.Nop()), hub
}

func boundClient(t *testing.T, hub *Hub, p *Processor, id string) *Client {
	t.Helper()

	c := NewClient(id, hub, nil, p, "", zerolog.Nop())
	hub.Register(c)
	hub.Subscribe(c, "room-1", "main.sh")
	c.bind("room-1", "main.sh")
	waitForSubscribers(t, hub, "room-1/main.sh", 1)
	return c
}

func TestProcess_UnknownEventType(t *testing.T) {
	p, hub := newTestProcessor()
	c := NewClient("a", hub, nil, p, "", zerolog.Nop())
	hub.Register(c)

	p.Process(c, Message{Type: "made-up-event", RoomID: "room-1", Filename: "main.sh"})

	got := receiveMessage(t, c)
	assert.Equal(t, EventError, got.Type)
}

func TestProcess_RunCode_RequiresSubscription(t *testing.T) {
	p, hub := newTestProcessor()
	c := NewClient("a", hub, nil, p, "", zerolog.Nop())
	hub.Register(c)

	p.Process(c, Message{Type: EventRunCode, RoomID: "room-1", Filename: "main.sh"})

	got := receiveMessage(t, c)
	assert.Equal(t, EventError, got.Type)
}

func TestProcess_RunCode_UnsupportedLanguage(t *testing.T) {
	p, hub := newTestProcessor()
	c := boundClient(t, hub, p, "a")

	p.Process(c, Message{
		Type:     EventRunCode,
		RoomID:   "room-1",
		Filename: "main.sh",
		Data:     map[string]any{"filename": "data.csv", "content": "a,b\n"},
	})

	got := receiveMessage(t, c)
	assert.Equal(t, EventError, got.Type)
}

func TestProcess_RunCode_StreamsToRequesterOnly(t *testing.T) {
	p, hub := newTestProcessor()
	a := boundClient(t, hub, p, "a")

	b := NewClient("b", hub, nil, p, "", zerolog.Nop())
	hub.Register(b)
	hub.Subscribe(b, "room-1", "main.sh")
	b.bind("room-1", "main.sh")
	waitForSubscribers(t, hub, "room-1/main.sh", 2)

	p.Process(a, Message{
		Type:     EventRunCode,
		RoomID:   "room-1",
		Filename: "main.sh",
		Data:     map[string]any{"filename": "main.sh", "content": "echo hello\n"},
	})

	var sawOutput, sawExit bool
	deadline := time.After(10 * time.Second)
	for !sawExit {
		select {
		case msg := <-a.Send:
			require.Equal(t, EventTerminalOutput, msg.Type)
			switch data := msg.Data.(type) {
			case TerminalChunk:
				assert.Equal(t, "hello", data.Chunk)
				assert.NotEmpty(t, data.JobID)
				sawOutput = true
			case TerminalExit:
				assert.Equal(t, 0, data.ExitCode)
				assert.True(t, data.Done)
				sawExit = true
			default:
				t.Fatalf("unexpected terminal payload %T", msg.Data)
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal output")
		}
	}
	assert.True(t, sawOutput)

	// The peer shares the channel but never sees the job's output.
	assertNothingDelivered(t, b)
}

func TestProcess_RunCode_DisconnectMidJob(t *testing.T) {
	p, hub := newTestProcessor()
	c := boundClient(t, hub, p, "a")

	p.Process(c, Message{
		Type:     EventRunCode,
		RoomID:   "room-1",
		Filename: "main.sh",
		Data:     map[string]any{"filename": "main.sh", "content": "sleep 1\necho late\n"},
	})

	// The client disconnects while the job is still running.
	time.Sleep(200 * time.Millisecond)
	hub.Unregister(c)

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-c.Send:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	// The drain goroutine keeps delivering after the disconnect; those
	// messages are dropped. A send on the closed channel would panic
	// and crash the test binary here.
	time.Sleep(1500 * time.Millisecond)
	c.deliver(NewDocSavedMessage("room-1", "main.sh"))
}

func TestProcess_SaveDoc_ChannelMismatch(t *testing.T) {
	p, hub := newTestProcessor()
	c := boundClient(t, hub, p, "a")

	p.Process(c, Message{
		Type:     EventSaveDoc,
		RoomID:   "room-2",
		Filename: "main.sh",
		Data:     map[string]any{"content": "x"},
	})

	got := receiveMessage(t, c)
	assert.Equal(t, EventError, got.Type)
}
