// Package process runs external helpers (Emacs, agda-mode) with a hard
// timeout and separate stdout/stderr capture.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"abbrevgen/internal/logging"
)

// ErrTimeout is returned when a command outlives its timeout.
var ErrTimeout = errors.New("process: timed out")

// waitDelay bounds how long Run waits for grandchildren holding the output
// pipes after the direct child has been killed.
const waitDelay = time.Second

// Command describes one invocation.
type Command struct {
	Binary  string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// Result is what a finished command left behind.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes commands. A non-zero exit status is not an error; it is
// reported through Result.ExitCode and callers decide what it means.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// DirectRunner runs commands as child processes of the current process.
type DirectRunner struct {
	logger *logging.Logger
}

// NewDirectRunner creates a runner that logs through logger (the default
// logger when nil).
func NewDirectRunner(logger *logging.Logger) *DirectRunner {
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectRunner{logger: logger.WithComponent("process")}
}

// Run executes cmd and waits for it.
func (r *DirectRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	execCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(execCtx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay

	var stdoutBuf, stderrBuf bytes.Buffer
	c.Stdout = &stdoutBuf
	c.Stderr = &stderrBuf

	r.logger.Debug("starting process", "binary", cmd.Binary, "args", cmd.Args)
	started := time.Now()
	err := c.Run()

	result := &Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(started),
	}

	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			result.ExitCode = -1
			r.logger.Warn("process killed", "binary", cmd.Binary, "timeout", cmd.Timeout)
			return result, fmt.Errorf("%w: %s after %s", ErrTimeout, cmd.Binary, cmd.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Debug("process exited non-zero", "binary", cmd.Binary, "exit_code", result.ExitCode)
			return result, nil
		}
		return result, fmt.Errorf("run %s: %w", cmd.Binary, err)
	}

	r.logger.Debug("process finished", "binary", cmd.Binary, "duration", result.Duration)
	return result, nil
}
