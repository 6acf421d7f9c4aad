package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"abbrevgen/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	errs = append(errs, validateLocator(&c.Locator)...)
	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateOutput(&c.Output)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLocator(c *LocatorConfig) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(c.Helper) == "" {
		errs = append(errs, ValidationError{Field: "locator.helper", Message: "required"})
	}
	if c.DefinitionFile == "" {
		errs = append(errs, ValidationError{Field: "locator.definition_file", Message: "required"})
	} else if filepath.Base(c.DefinitionFile) != c.DefinitionFile {
		errs = append(errs, ValidationError{
			Field:   "locator.definition_file",
			Message: fmt.Sprintf("must be a bare file name, got %q", c.DefinitionFile),
		})
	}
	if c.TimeoutSec <= 0 {
		errs = append(errs, ValidationError{Field: "locator.timeout_sec", Message: "must be positive"})
	}
	return errs
}

func validateEngine(c *EngineConfig) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(c.Binary) == "" {
		errs = append(errs, ValidationError{Field: "engine.binary", Message: "required"})
	}
	if strings.TrimSpace(c.InputMethod) == "" {
		errs = append(errs, ValidationError{Field: "engine.input_method", Message: "required"})
	} else if strings.ContainsAny(c.InputMethod, "\"\\") {
		errs = append(errs, ValidationError{
			Field:   "engine.input_method",
			Message: "must not contain quotes or backslashes",
		})
	}
	if c.TimeoutSec <= 0 {
		errs = append(errs, ValidationError{Field: "engine.timeout_sec", Message: "must be positive"})
	}
	if c.PreviewChars <= 0 {
		errs = append(errs, ValidationError{Field: "engine.preview_chars", Message: "must be positive"})
	}
	return errs
}

func validateOutput(c *OutputConfig) ValidationErrors {
	var errs ValidationErrors
	switch {
	case c.Path == "":
		errs = append(errs, ValidationError{Field: "output.path", Message: "required"})
	case filepath.IsAbs(c.Path):
		errs = append(errs, ValidationError{Field: "output.path", Message: "must be relative to the project root"})
	case !filepath.IsLocal(c.Path):
		errs = append(errs, ValidationError{Field: "output.path", Message: "must stay inside the project root"})
	}
	if c.RootMarker == "" {
		errs = append(errs, ValidationError{Field: "output.root_marker", Message: "required"})
	}
	return errs
}

func validateLogging(c *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	if _, err := logging.ParseLevel(c.Level); err != nil {
		errs = append(errs, ValidationError{Field: "logging.level", Message: err.Error()})
	}
	if _, err := logging.ParseFormat(c.Format); err != nil {
		errs = append(errs, ValidationError{Field: "logging.format", Message: err.Error()})
	}
	return errs
}

// LoggerConfig converts the logging section into a logging.Config.
func (c *Config) LoggerConfig() *logging.Config {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
		lc.Level = level
	}
	if format, err := logging.ParseFormat(c.Logging.Format); err == nil {
		lc.Format = format
	}
	return lc
}
