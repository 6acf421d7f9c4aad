// Package config holds the generator's compiled-in settings.
//
// abbrevgen is parameterless: there are no flags, environment variables or
// configuration files. The settings are embedded at build time as TOML.
package config

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed defaults.toml
var defaultsTOML string

// Config is the complete set of generator settings.
type Config struct {
	// Locator configures how the input method definition is found.
	Locator LocatorConfig `toml:"locator"`

	// Engine configures the batch Emacs invocation.
	Engine EngineConfig `toml:"engine"`

	// Output configures where the artifact is written.
	Output OutputConfig `toml:"output"`

	// Logging configures diagnostics.
	Logging LoggingConfig `toml:"logging"`
}

// LocatorConfig describes the helper that reports where the definition lives.
type LocatorConfig struct {
	// Helper is the executable looked up on PATH.
	Helper string `toml:"helper"`

	// Args are passed to Helper; it must print a path to a sibling of DefinitionFile.
	Args []string `toml:"args"`

	// DefinitionFile is the file name of the input method definition module.
	DefinitionFile string `toml:"definition_file"`

	TimeoutSec int `toml:"timeout_sec"`
}

// EngineConfig describes the batch Emacs run.
type EngineConfig struct {
	Binary string `toml:"binary"`

	// InputMethod is the Quail package whose translations are dumped.
	InputMethod string `toml:"input_method"`

	TimeoutSec int `toml:"timeout_sec"`

	// PreviewChars bounds how much unparseable output is echoed back.
	PreviewChars int `toml:"preview_chars"`
}

// OutputConfig describes the artifact location.
type OutputConfig struct {
	// Path is relative to the project root.
	Path string `toml:"path"`

	// RootMarker is the file whose nearest enclosing directory is the project root.
	RootMarker string `toml:"root_marker"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns the embedded defaults. The embedded document is
// covered by tests, so a decode failure here is a build defect and panics.
func DefaultConfig() *Config {
	cfg, err := decode(defaultsTOML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// decode parses a TOML document into a Config. Keys that match no field are
// rejected so a misspelt setting cannot silently fall back to zero.
func decode(doc string) (*Config, error) {
	cfg := &Config{}
	md, err := toml.Decode(doc, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Load returns the validated embedded defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Timeout returns the helper timeout.
func (c LocatorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Timeout returns the Emacs timeout.
func (c EngineConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
