// abbrevgen regenerates src/unicode/abbreviations.json from the installed
// Agda input method.
//
// It runs Emacs in batch mode to load agda-input.el (found through
// `agda-mode locate`), dumps the resolved translation table, normalizes it
// and writes it sorted and pretty-printed. It takes no arguments.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"abbrevgen/internal/config"
	"abbrevgen/internal/logging"
	"abbrevgen/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit, so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		usage(stderr)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	lc := cfg.LoggerConfig()
	lc.Writer = stderr
	logger, err := logging.New(lc)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	logging.SetDefault(logger)

	p := pipeline.New(cfg, pipeline.WithLogger(logger), pipeline.WithStdout(stdout))
	if _, err := p.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `abbrevgen - regenerate the Unicode abbreviation table

Usage: abbrevgen

Loads agda-input.el into a batch Emacs, dumps the Agda input method's
translations and writes them to src/unicode/abbreviations.json under the
nearest directory containing package.json.

Requires emacs and agda-mode on PATH. Takes no arguments.`)
}
