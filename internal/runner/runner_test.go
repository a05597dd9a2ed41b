package runner

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(maxConcurrent int, timeout time.Duration) *Runner {
	return New(maxConcurrent, timeout, "", zerolog.Nop())
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()

	var got []Event
	deadline := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatal("timed out waiting for job events")
		}
	}
}

func exitEvent(t *testing.T, events []Event) Event {
	t.Helper()

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, EventExit, last.Kind, "exit must be the terminal event")
	return last
}

func TestRun_ShellScript(t *testing.T) {
	r := newTestRunner(2, 10*time.Second)

	job, events, err := r.Run(context.Background(), "print.sh", "echo 2\n")
	require.NoError(t, err)

	got := collect(t, events)
	exit := exitEvent(t, got)
	assert.Equal(t, 0, exit.ExitCode)

	var stdout []string
	for _, ev := range got {
		if ev.Kind == EventStdout {
			stdout = append(stdout, ev.Line)
		}
	}
	assert.Equal(t, []string{"2"}, stdout)

	assert.Equal(t, StateCompleted, job.State())
	assert.Equal(t, 0, job.ExitCode())
}

func TestRun_NonzeroExitIsCompleted(t *testing.T) {
	r := newTestRunner(1, 10*time.Second)

	job, events, err := r.Run(context.Background(), "fail.sh", "echo oops >&2\nexit 3\n")
	require.NoError(t, err)

	got := collect(t, events)
	exit := exitEvent(t, got)
	assert.Equal(t, 3, exit.ExitCode)

	var stderr []string
	for _, ev := range got {
		if ev.Kind == EventStderr {
			stderr = append(stderr, ev.Line)
		}
	}
	assert.Equal(t, []string{"oops"}, stderr)

	// Ran and exited nonzero: that is a completed job, not a failed one.
	assert.Equal(t, StateCompleted, job.State())
	assert.Equal(t, 3, job.ExitCode())
}

func TestRun_StdoutOrderPreserved(t *testing.T) {
	r := newTestRunner(1, 10*time.Second)

	script := "for i in 1 2 3 4 5; do echo $i; done\n"
	_, events, err := r.Run(context.Background(), "count.sh", script)
	require.NoError(t, err)

	got := collect(t, events)
	var stdout []string
	for _, ev := range got {
		if ev.Kind == EventStdout {
			stdout = append(stdout, ev.Line)
		}
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, stdout)
}

func TestRun_CompileErrorNeverRuns(t *testing.T) {
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not available")
	}

	r := newTestRunner(1, 30*time.Second)

	job, events, err := r.Run(context.Background(), "broken.c", "this is not C\n")
	require.NoError(t, err)

	got := collect(t, events)

	var diagnostics string
	for _, ev := range got {
		require.NotEqual(t, EventStdout, ev.Kind, "run phase must never start after a compile error")
		if ev.Kind == EventCompileError {
			diagnostics = ev.Line
		}
	}
	assert.NotEmpty(t, diagnostics)

	exit := exitEvent(t, got)
	assert.NotEqual(t, 0, exit.ExitCode)
	assert.Equal(t, StateFailed, job.State())
}

func TestRun_UnsupportedLanguage(t *testing.T) {
	r := newTestRunner(1, 10*time.Second)

	_, _, err := r.Run(context.Background(), "data.csv", "a,b,c\n")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestRun_AdmissionControl(t *testing.T) {
	r := newTestRunner(1, 10*time.Second)

	_, events, err := r.Run(context.Background(), "slow.sh", "sleep 2\n")
	require.NoError(t, err)

	// The single slot is held; a second request is rejected, not queued.
	_, _, err = r.Run(context.Background(), "quick.sh", "echo hi\n")
	assert.ErrorIs(t, err, ErrBusy)

	collect(t, events)

	// Slot released after the job finished.
	_, events, err = r.Run(context.Background(), "quick.sh", "echo hi\n")
	require.NoError(t, err)
	collect(t, events)
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	r := newTestRunner(1, 500*time.Millisecond)

	start := time.Now()
	job, events, err := r.Run(context.Background(), "forever.sh", "sleep 30\n")
	require.NoError(t, err)

	got := collect(t, events)
	assert.Less(t, time.Since(start), 10*time.Second)

	exit := exitEvent(t, got)
	assert.NotEqual(t, 0, exit.ExitCode)
	assert.Equal(t, StateCompleted, job.State())
}
