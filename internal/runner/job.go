package runner

import "sync"

// State is the lifecycle phase of an execution job.
type State string

const (
	StatePending   State = "pending"
	StateCompiling State = "compiling"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// EventKind discriminates the events streamed back to the requester.
type EventKind string

const (
	// EventStdout and EventStderr carry one line of process output.
	EventStdout EventKind = "stdout"
	EventStderr EventKind = "stderr"
	// EventCompileError carries the compiler's diagnostic output. The
	// run phase is never entered after it.
	EventCompileError EventKind = "compile-error"
	// EventExit is the terminal event of every job that spawned a
	// process; it carries the exit code.
	EventExit EventKind = "exit"
)

// Event is one chunk of the output stream of a job. Ordering is
// preserved within each of stdout and stderr; interleaving between the
// two streams is best effort.
type Event struct {
	Kind     EventKind
	Line     string
	ExitCode int
}

// Job is one request to materialize and run a file's content in an
// isolated workspace. The workspace is keyed by the job id, never by
// the filename, so concurrent jobs for same-named files cannot collide.
type Job struct {
	ID        string
	Filename  string
	Toolchain Toolchain

	mu       sync.Mutex
	state    State
	exitCode int
}

// State returns the current lifecycle phase.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// ExitCode is meaningful once the job reached StateCompleted or
// StateFailed after a run phase.
func (j *Job) ExitCode() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

func (j *Job) finish(s State, exitCode int) {
	j.mu.Lock()
	j.state = s
	j.exitCode = exitCode
	j.mu.Unlock()
}
