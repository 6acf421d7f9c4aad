// Package locate finds the external tools the generator drives and the
// input method definition module they load.
package locate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"abbrevgen/internal/config"
	"abbrevgen/internal/logging"
	"abbrevgen/internal/process"
)

// Locator errors.
var (
	ErrToolNotFound       = errors.New("locate: tool not found")
	ErrDefinitionNotFound = errors.New("locate: definition not found")
	ErrLocateFailed       = errors.New("locate: helper failed")
)

// FindExecutable resolves name on PATH.
func FindExecutable(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: '%s' not found in PATH", ErrToolNotFound, name)
	}
	return path, nil
}

// Locator resolves the definition module through the helper command.
type Locator struct {
	cfg    config.LocatorConfig
	runner process.Runner
	logger *logging.Logger
}

// New creates a Locator.
func New(cfg config.LocatorConfig, runner process.Runner, logger *logging.Logger) *Locator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Locator{
		cfg:    cfg,
		runner: runner,
		logger: logger.WithComponent("locate"),
	}
}

// Definition returns the absolute path of the definition module.
//
// The helper prints the path of a file that lives next to the definition
// (agda-mode prints agda2.el); only its directory is used.
func (l *Locator) Definition(ctx context.Context) (string, error) {
	helper, err := FindExecutable(l.cfg.Helper)
	if err != nil {
		return "", err
	}

	res, err := l.runner.Run(ctx, process.Command{
		Binary:  helper,
		Args:    l.cfg.Args,
		Timeout: l.cfg.Timeout(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %v", ErrLocateFailed, l.cfg.Helper, strings.Join(l.cfg.Args, " "), err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: `%s %s` exited %d: %s", ErrLocateFailed,
			l.cfg.Helper, strings.Join(l.cfg.Args, " "), res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	sibling := firstLine(res.Stdout)
	if sibling == "" {
		return "", fmt.Errorf("%w: `%s %s` printed nothing", ErrDefinitionNotFound,
			l.cfg.Helper, strings.Join(l.cfg.Args, " "))
	}

	definition := filepath.Join(filepath.Dir(sibling), l.cfg.DefinitionFile)
	if abs, err := filepath.Abs(definition); err == nil {
		definition = abs
	}

	info, err := os.Stat(definition)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s not found at %s", ErrDefinitionNotFound, l.cfg.DefinitionFile, definition)
	}

	l.logger.Debug("definition resolved", "path", definition, "sibling", sibling)
	return definition, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
