// Package pipeline wires the generator's stages together: locate the
// tools, dump the engine's table, normalize it, write the artifact.
//
// A run is all or nothing. Any failure aborts it with a *StageError and no
// artifact is written.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"abbrevgen/internal/artifact"
	"abbrevgen/internal/config"
	"abbrevgen/internal/engine"
	"abbrevgen/internal/fsutil"
	"abbrevgen/internal/locate"
	"abbrevgen/internal/logging"
	"abbrevgen/internal/process"
	"abbrevgen/internal/table"
)

// Stage names used in errors and logs.
const (
	StageLocate    = "locate"
	StageDump      = "dump"
	StageNormalize = "normalize"
	StageWrite     = "write"
)

// StageError names the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result describes a successful run.
type Result struct {
	Emacs      string
	Definition string
	Output     string
	RawCount   int
	Stats      table.Stats

	// EngineExitCode is the batch Emacs exit status. It may be non-zero on
	// a successful run when Emacs printed a table and then complained.
	EngineExitCode int
}

// Pipeline runs the generator once per Run call. It holds no state between
// runs.
type Pipeline struct {
	cfg     *config.Config
	runner  process.Runner
	logger  *logging.Logger
	stdout  io.Writer
	workDir string
	tempDir string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the process runner.
func WithRunner(r process.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithLogger replaces the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithStdout sets where progress lines go.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) { p.stdout = w }
}

// WithWorkDir sets the directory the project root search starts from.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) { p.workDir = dir }
}

// WithTempDir sets where the transient dump routine is written.
func WithTempDir(dir string) Option {
	return func(p *Pipeline) { p.tempDir = dir }
}

// New creates a Pipeline for cfg.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	p.logger = p.logger.WithComponent("pipeline")
	if p.runner == nil {
		p.runner = process.NewDirectRunner(p.logger)
	}
	return p
}

// Run executes every stage in order.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	workDir := p.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &StageError{Stage: StageLocate, Err: fmt.Errorf("working directory: %w", err)}
		}
		workDir = wd
	}

	res := &Result{}

	emacs, err := locate.FindExecutable(p.cfg.Engine.Binary)
	if err != nil {
		return nil, &StageError{Stage: StageLocate, Err: err}
	}
	res.Emacs = emacs

	definition, err := locate.New(p.cfg.Locator, p.runner, p.logger).Definition(ctx)
	if err != nil {
		return nil, &StageError{Stage: StageLocate, Err: err}
	}
	res.Definition = definition

	p.progress("Using "+p.cfg.Engine.Binary+":", emacs)
	p.progress("Using "+p.cfg.Locator.DefinitionFile+":", definition)

	inv := engine.New(emacs, p.cfg.Engine, p.runner, p.logger, engine.WithTempDir(p.tempDir))
	dump, err := inv.Dump(ctx, definition)
	if err != nil {
		return nil, &StageError{Stage: StageDump, Err: err}
	}
	res.RawCount = len(dump.Raw)
	res.EngineExitCode = dump.ExitCode
	p.logger.Info("engine finished", "exit_code", dump.ExitCode, "stderr_bytes", len(dump.Stderr))
	p.progress("Raw translations:", fmt.Sprint(res.RawCount))

	normalized := table.Normalize(dump.Raw)
	res.Stats = normalized.Stats()
	p.progress("After postprocessing:", fmt.Sprintf("%d (%d single, %d multi)",
		res.Stats.Total, res.Stats.Single, res.Stats.Multi))

	output := p.outputPath(workDir)
	p.logChanges(output, normalized)

	if err := artifact.Write(output, normalized); err != nil {
		return nil, &StageError{Stage: StageWrite, Err: err}
	}
	res.Output = output
	p.progress("Wrote:", output)

	return res, nil
}

// outputPath resolves the artifact path against the project root: the
// nearest ancestor of workDir holding the root marker, or workDir itself.
func (p *Pipeline) outputPath(workDir string) string {
	root := workDir
	if found, ok := fsutil.FindUp(workDir, p.cfg.Output.RootMarker); ok {
		root = found
	} else {
		p.logger.Warn("project root marker not found, using working directory",
			"marker", p.cfg.Output.RootMarker, "dir", workDir)
	}
	return filepath.Join(root, filepath.FromSlash(p.cfg.Output.Path))
}

// logChanges reports how the new table differs from the artifact it replaces.
func (p *Pipeline) logChanges(path string, next table.Table) {
	prev, err := artifact.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("existing artifact unreadable, replacing it", "path", path, "error", err)
		}
		return
	}

	var added, removed, changed int
	for _, e := range next.Entries() {
		old, ok := prev.Lookup(e.Key)
		switch {
		case !ok:
			added++
		case !slices.Equal(old, e.Translations):
			changed++
		}
	}
	for _, key := range prev.Keys() {
		if _, ok := next.Lookup(key); !ok {
			removed++
		}
	}
	p.logger.Info("artifact changes", "path", path, "added", added, "removed", removed, "changed", changed)
}

func (p *Pipeline) progress(label, value string) {
	fmt.Fprintf(p.stdout, "%-22s%s\n", label, value)
}
