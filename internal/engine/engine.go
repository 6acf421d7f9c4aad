// Package engine drives Emacs in batch mode to dump an input method's
// translation table.
package engine

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"abbrevgen/internal/config"
	"abbrevgen/internal/fsutil"
	"abbrevgen/internal/logging"
	"abbrevgen/internal/process"
)

//go:embed dump.el
var dumpRoutine string

// Engine errors.
var (
	ErrTimeout         = errors.New("engine: timed out")
	ErrNoOutput        = errors.New("engine: produced no output")
	ErrMalformedOutput = errors.New("engine: malformed output")
)

// MalformedOutputError carries the start of the output that failed to parse.
type MalformedOutputError struct {
	Preview string
	Err     error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%v: %v; first %d chars: %s",
		ErrMalformedOutput, e.Err, len([]rune(e.Preview)), e.Preview)
}

// Unwrap exposes both the sentinel and the decoder error.
func (e *MalformedOutputError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}

// Script returns the dump routine for the named input method.
func Script(inputMethod string) string {
	return strings.ReplaceAll(dumpRoutine, "@INPUT_METHOD@", inputMethod)
}

// Dump is the outcome of one engine run.
type Dump struct {
	// Raw maps decorated triggers to their candidate translations.
	Raw map[string][]string

	// Stderr is whatever the engine printed on its error channel.
	Stderr string

	ExitCode int
}

// Invoker runs the dump routine inside a batch Emacs.
type Invoker struct {
	binary  string
	cfg     config.EngineConfig
	runner  process.Runner
	logger  *logging.Logger
	tempDir string
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTempDir places the transient dump file in dir instead of os.TempDir.
func WithTempDir(dir string) Option {
	return func(inv *Invoker) { inv.tempDir = dir }
}

// New creates an Invoker that runs binary.
func New(binary string, cfg config.EngineConfig, runner process.Runner, logger *logging.Logger, opts ...Option) *Invoker {
	if logger == nil {
		logger = logging.Default()
	}
	inv := &Invoker{
		binary: binary,
		cfg:    cfg,
		runner: runner,
		logger: logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Dump loads definition into a batch Emacs, runs the dump routine and parses
// what it prints.
//
// The exit status is not trusted: Emacs routinely warns on stderr and may
// exit non-zero while still printing a complete table. Only an empty stdout
// counts as failure.
func (inv *Invoker) Dump(ctx context.Context, definition string) (*Dump, error) {
	var res *process.Result
	err := fsutil.WithTempFile(inv.tempDir, "abbrevgen-dump-*.el", []byte(Script(inv.cfg.InputMethod)),
		func(dumpPath string) error {
			var runErr error
			res, runErr = inv.runner.Run(ctx, process.Command{
				Binary:  inv.binary,
				Args:    []string{"--batch", "-l", definition, "-l", dumpPath},
				Timeout: inv.cfg.Timeout(),
			})
			return runErr
		})
	if err != nil {
		if errors.Is(err, process.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, inv.cfg.Binary, inv.cfg.Timeout())
		}
		return nil, fmt.Errorf("engine: run %s: %w", inv.cfg.Binary, err)
	}

	stdout := strings.TrimSpace(res.Stdout)
	stderr := strings.TrimSpace(res.Stderr)
	if stdout == "" {
		if stderr != "" {
			return nil, fmt.Errorf("%w (exit %d): %s", ErrNoOutput, res.ExitCode, stderr)
		}
		return nil, fmt.Errorf("%w (exit %d)", ErrNoOutput, res.ExitCode)
	}
	if res.ExitCode != 0 {
		inv.logger.Warn("emacs exited non-zero but printed output", "exit_code", res.ExitCode, "stderr", stderr)
	} else if stderr != "" {
		inv.logger.Debug("emacs stderr", "stderr", stderr)
	}

	raw, err := ParseDump(stdout, inv.cfg.PreviewChars)
	if err != nil {
		return nil, err
	}

	inv.logger.Debug("dump parsed", "entries", len(raw), "duration", res.Duration)
	return &Dump{Raw: raw, Stderr: res.Stderr, ExitCode: res.ExitCode}, nil
}
