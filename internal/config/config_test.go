package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abbrevgen/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "agda-mode", cfg.Locator.Helper)
	assert.Equal(t, []string{"locate"}, cfg.Locator.Args)
	assert.Equal(t, "agda-input.el", cfg.Locator.DefinitionFile)
	assert.Equal(t, "emacs", cfg.Engine.Binary)
	assert.Equal(t, "Agda", cfg.Engine.InputMethod)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout())
	assert.Equal(t, 30*time.Second, cfg.Locator.Timeout())
	assert.Equal(t, 500, cfg.Engine.PreviewChars)
	assert.Equal(t, "src/unicode/abbreviations.json", cfg.Output.Path)
	assert.Equal(t, "package.json", cfg.Output.RootMarker)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "emacs", cfg.Engine.Binary)
}

func TestDecode(t *testing.T) {
	cfg, err := decode("[engine]\nbinary = \"/opt/emacs/bin/emacs\"\ntimeout_sec = 5\n")
	require.NoError(t, err)
	assert.Equal(t, "/opt/emacs/bin/emacs", cfg.Engine.Binary)
	assert.Equal(t, 5*time.Second, cfg.Engine.Timeout())
	assert.Empty(t, cfg.Locator.Helper)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := decode("[engine]\nbinary = \"emacs\"\ntimeout = 5\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.timeout")
}

func TestDecodeMalformed(t *testing.T) {
	_, err := decode("[engine")
	assert.Error(t, err)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Locator.Helper = ""
	cfg.Locator.DefinitionFile = "lisp/agda-input.el"
	cfg.Engine.TimeoutSec = 0
	cfg.Engine.InputMethod = `Ag"da`
	cfg.Output.Path = "../outside.json"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))

	fields := make(map[string]bool)
	for _, e := range verrs {
		fields[e.Field] = true
	}
	for _, want := range []string{
		"locator.helper",
		"locator.definition_file",
		"engine.timeout_sec",
		"engine.input_method",
		"output.path",
		"logging.level",
	} {
		assert.True(t, fields[want], "missing validation error for %s", want)
	}
}

func TestValidateAbsoluteOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Path = "/tmp/abbreviations.json"
	require.Error(t, cfg.Validate())
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	lc := cfg.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.Equal(t, "stderr", lc.Output)
}
