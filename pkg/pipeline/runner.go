package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/vanderheijden86/neurodeck/pkg/debug"
)

// ErrAlreadyRunning is returned when a step is launched while a previous
// run of the same step is still in flight.
var ErrAlreadyRunning = errors.New("pipeline: step is already running")

// Runner launches pipeline steps as subprocesses and streams their output.
// The zero value is not usable; construct with NewRunner.
type Runner struct {
	command []string // argv prefix, step id appended

	mu      sync.Mutex
	running map[string]bool
}

// NewRunner creates a runner that invokes the given command with the step
// id as its final argument, e.g. {"python", "pipeline.py"}.
func NewRunner(command []string) *Runner {
	return &Runner{
		command: append([]string(nil), command...),
		running: make(map[string]bool),
	}
}

// Job is one in-flight step run. Messages are delivered until the process
// exits, after which the channel closes and Err reports the outcome.
type Job struct {
	Step    Step
	Started time.Time

	messages chan Message
	done     chan struct{}

	errMu sync.Mutex
	err   error
}

// Messages streams the run's output lines.
func (j *Job) Messages() <-chan Message { return j.messages }

// Done is closed when the run has finished and Err is final.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err returns the run error, if any. Valid after Done is closed.
func (j *Job) Err() error {
	j.errMu.Lock()
	defer j.errMu.Unlock()
	return j.err
}

// Duration returns how long the run took (or has taken so far).
func (j *Job) Duration() time.Duration {
	select {
	case <-j.done:
	default:
	}
	return time.Since(j.Started)
}

// Running reports whether the given step has a run in flight.
func (r *Runner) Running(stepID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[stepID]
}

// Run launches a step. The returned job streams combined output; lines
// that decode as structured events carry them. Only one run per step may be
// in flight at a time.
func (r *Runner) Run(ctx context.Context, stepID string) (*Job, error) {
	step, ok := ByID(stepID)
	if !ok {
		return nil, ValidateID(stepID)
	}
	r.mu.Lock()
	if r.running[stepID] {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, stepID)
	}
	r.running[stepID] = true
	r.mu.Unlock()

	argv := append(append([]string(nil), r.command...), stepID)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.finish(stepID)
		return nil, fmt.Errorf("pipeline: stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		r.finish(stepID)
		return nil, fmt.Errorf("pipeline: starting %q: %w", argv[0], err)
	}
	debug.Log("pipeline: started %s (pid %d)", stepID, cmd.Process.Pid)

	job := &Job{
		Step:     step,
		Started:  time.Now(),
		messages: make(chan Message, 64),
		done:     make(chan struct{}),
	}

	go func() {
		defer close(job.done)
		defer close(job.messages)
		defer r.finish(stepID)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			select {
			case job.messages <- ParseLine(scanner.Text()):
			case <-ctx.Done():
			}
		}
		scanErr := scanner.Err()
		waitErr := cmd.Wait()
		debug.LogTiming("pipeline."+stepID, time.Since(job.Started))

		job.errMu.Lock()
		switch {
		case ctx.Err() != nil:
			job.err = ctx.Err()
		case waitErr != nil:
			job.err = fmt.Errorf("pipeline: %s failed: %w", stepID, waitErr)
		case scanErr != nil:
			job.err = fmt.Errorf("pipeline: reading %s output: %w", stepID, scanErr)
		}
		job.errMu.Unlock()
	}()

	return job, nil
}

func (r *Runner) finish(stepID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, stepID)
}
