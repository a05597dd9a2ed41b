package runner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrBusy is returned when the worker pool is at capacity. The request
// is rejected up front; nothing is queued and no workspace is created.
var ErrBusy = errors.New("too many concurrent jobs")

// Runner executes source files in isolated per-job workspaces and
// streams their output. Jobs share nothing but the host's process
// table and file system.
type Runner struct {
	sem     chan struct{}
	timeout time.Duration
	baseDir string
	logger  zerolog.Logger
}

func New(maxConcurrent int, timeout time.Duration, baseDir string, logger zerolog.Logger) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		sem:     make(chan struct{}, maxConcurrent),
		timeout: timeout,
		baseDir: baseDir,
		logger:  logger,
	}
}

// Run starts one execution job for the given file content. It returns
// the job handle and the event stream, which the caller must drain;
// the stream is closed after the terminal exit event. Admission is
// checked before anything touches the file system: beyond the pool
// capacity the request fails with ErrBusy, unsupported extensions fail
// with ErrUnsupportedLanguage. Cancelling ctx kills the whole process
// group of the job.
func (r *Runner) Run(ctx context.Context, filename string, content string) (*Job, <-chan Event, error) {
	tc, err := ToolchainFor(filename)
	if err != nil {
		return nil, nil, err
	}

	select {
	case r.sem <- struct{}{}:
	default:
		return nil, nil, ErrBusy
	}

	job := &Job{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(filename),
		Toolchain: tc,
		state:     StatePending,
	}
	events := make(chan Event, 64)

	go r.execute(ctx, job, content, events)

	return job, events, nil
}

func (r *Runner) execute(ctx context.Context, job *Job, content string, events chan<- Event) {
	defer func() { <-r.sem }()
	defer close(events)

	// Workspace is exclusive to this job: keyed by job id, never by
	// filename, so concurrent jobs for same-named files in different
	// rooms cannot collide.
	workDir, err := os.MkdirTemp(r.baseDir, "job-"+job.ID[:8]+"-*")
	if err != nil {
		r.logger.Error().Err(err).Str("jobId", job.ID).Msg("Failed to create job workspace")
		events <- Event{Kind: EventStderr, Line: "failed to prepare workspace"}
		events <- Event{Kind: EventExit, ExitCode: -1}
		job.finish(StateFailed, -1)
		return
	}
	defer os.RemoveAll(workDir)

	if err := os.WriteFile(filepath.Join(workDir, job.Filename), []byte(content), 0644); err != nil {
		r.logger.Error().Err(err).Str("jobId", job.ID).Msg("Failed to materialize source file")
		events <- Event{Kind: EventStderr, Line: "failed to materialize source"}
		events <- Event{Kind: EventExit, ExitCode: -1}
		job.finish(StateFailed, -1)
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if job.Toolchain.Compiled() {
		job.setState(StateCompiling)
		argv := job.Toolchain.CompileArgv(job.Filename)
		compile := exec.CommandContext(runCtx, argv[0], argv[1:]...)
		compile.Dir = workDir
		out, err := compile.CombinedOutput()
		if err != nil {
			exit := exitCodeOf(err)
			r.logger.Info().Str("jobId", job.ID).Str("toolchain", job.Toolchain.Name).Int("exit", exit).Msg("Compilation failed")
			events <- Event{Kind: EventCompileError, Line: string(out)}
			events <- Event{Kind: EventExit, ExitCode: exit}
			job.finish(StateFailed, exit)
			return
		}
	}

	job.setState(StateRunning)
	argv := job.Toolchain.RunArgv(job.Filename)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = workDir

	// Own process group, so that timeout and cancellation kill every
	// descendant, not just the direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.failToStart(job, events, err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.failToStart(job, events, err)
		return
	}

	if err := cmd.Start(); err != nil {
		r.failToStart(job, events, err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go streamLines(&wg, stdout, EventStdout, events)
	go streamLines(&wg, stderr, EventStderr, events)
	wg.Wait()

	exit := 0
	if err := cmd.Wait(); err != nil {
		exit = exitCodeOf(err)
	}

	events <- Event{Kind: EventExit, ExitCode: exit}
	job.finish(StateCompleted, exit)

	r.logger.Info().
		Str("jobId", job.ID).
		Str("toolchain", job.Toolchain.Name).
		Int("exit", exit).
		Msg("Job finished")
}

func (r *Runner) failToStart(job *Job, events chan<- Event, err error) {
	r.logger.Error().Err(err).Str("jobId", job.ID).Msg("Failed to start job process")
	events <- Event{Kind: EventStderr, Line: err.Error()}
	events <- Event{Kind: EventExit, ExitCode: -1}
	job.finish(StateFailed, -1)
}

// streamLines forwards one output stream line by line. Order is
// preserved within the stream; interleaving with the other stream is
// whatever the scheduler gives us.
func streamLines(wg *sync.WaitGroup, r io.Reader, kind EventKind, events chan<- Event) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		events <- Event{Kind: kind, Line: scanner.Text()}
	}
}

// exitCodeOf extracts the exit code from cmd.Wait's error. Non-exit
// failures (killed process group, context timeout) map to -1.
func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
