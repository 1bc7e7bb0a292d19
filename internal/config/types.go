// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// RunnerNative runs pipeline steps in the host system shell.
	// Defined locally to avoid coupling config to pkg/pipefile;
	// the CLI layer casts to pipefile.RunnerMode at the boundary.
	RunnerNative RunnerMode = "native"
	// RunnerVirtual runs pipeline steps in the embedded mvdan/sh interpreter.
	RunnerVirtual RunnerMode = "virtual"

	// DefaultWatchDebounceMs is the quiet window, in milliseconds, that watch
	// mode waits after the last file event before re-running a pipeline.
	DefaultWatchDebounceMs = 500

	// DefaultCleanPattern is the glob matched by `taskpipe clean` when neither
	// the config file nor the pipefile configures cleanup patterns.
	DefaultCleanPattern = "temp/**"
)

var (
	// ErrInvalidConfigRunnerMode is returned when a config RunnerMode value is not recognized.
	ErrInvalidConfigRunnerMode = errors.New("invalid runner mode")
	// ErrInvalidSearchPath is the sentinel error wrapped by InvalidSearchPathError.
	ErrInvalidSearchPath = errors.New("invalid search path")
	// ErrInvalidCleanConfig is the sentinel error wrapped by InvalidCleanConfigError.
	ErrInvalidCleanConfig = errors.New("invalid clean config")
	// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RunnerMode specifies the execution runner for pipeline steps.
	RunnerMode string

	// InvalidConfigRunnerModeError is returned when a config RunnerMode value is
	// not recognized. It wraps ErrInvalidConfigRunnerMode for errors.Is() compatibility.
	InvalidConfigRunnerModeError struct {
		Value RunnerMode
	}

	// SearchPath is a filesystem path scanned for pipefiles during discovery.
	// A valid path must be non-empty and not whitespace-only.
	SearchPath string

	// InvalidSearchPathError is returned when a SearchPath value is empty or
	// whitespace-only. It wraps ErrInvalidSearchPath for errors.Is() compatibility.
	InvalidSearchPathError struct {
		Value SearchPath
	}

	// InvalidCleanConfigError is returned when a CleanConfig has invalid fields.
	// It wraps ErrInvalidCleanConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidCleanConfigError struct {
		FieldErrors []error
	}

	// InvalidWatchConfigError is returned when a WatchConfig has invalid fields.
	// It wraps ErrInvalidWatchConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultRunner sets the global default runner mode
		DefaultRunner RunnerMode `json:"default_runner" mapstructure:"default_runner"`
		// SearchPaths lists extra directories scanned for pipefiles.
		SearchPaths []SearchPath `json:"search_paths" mapstructure:"search_paths"`
		// Stats configures artifact size reporting
		Stats StatsConfig `json:"stats" mapstructure:"stats"`
		// Clean configures workspace cleanup
		Clean CleanConfig `json:"clean" mapstructure:"clean"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Watch configures watch mode
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
	}

	// StatsConfig configures artifact size reporting.
	StatsConfig struct {
		// Enabled turns on gzip/raw size reports after pipeline runs
		Enabled bool `json:"enabled" mapstructure:"enabled"`
	}

	// CleanConfig configures workspace cleanup.
	CleanConfig struct {
		// Patterns are doublestar globs, relative to the pipefile directory,
		// matched when `taskpipe clean` runs without explicit patterns.
		Patterns []string `json:"patterns" mapstructure:"patterns"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
		// NoColor disables styled terminal output
		NoColor bool `json:"no_color" mapstructure:"no_color"`
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		// DebounceMs is the quiet window in milliseconds before a re-run
		DebounceMs int `json:"debounce_ms" mapstructure:"debounce_ms"`
	}
)

// Error implements the error interface for InvalidConfigRunnerModeError.
func (e *InvalidConfigRunnerModeError) Error() string {
	return fmt.Sprintf("invalid runner mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidConfigRunnerModeError) Unwrap() error {
	return ErrInvalidConfigRunnerMode
}

// String returns the string representation of the config RunnerMode.
func (m RunnerMode) String() string { return string(m) }

// IsValid returns whether the config RunnerMode is one of the defined runner modes,
// and a list of validation errors if it is not.
func (m RunnerMode) IsValid() (bool, []error) {
	switch m {
	case RunnerNative, RunnerVirtual:
		return true, nil
	default:
		return false, []error{&InvalidConfigRunnerModeError{Value: m}}
	}
}

// String returns the string representation of the SearchPath.
func (p SearchPath) String() string { return string(p) }

// IsValid returns whether the SearchPath is valid.
// A valid path must be non-empty and not whitespace-only.
func (p SearchPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidSearchPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSearchPathError.
func (e *InvalidSearchPathError) Error() string {
	return fmt.Sprintf("invalid search path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidSearchPath for errors.Is() compatibility.
func (e *InvalidSearchPathError) Unwrap() error { return ErrInvalidSearchPath }

// IsValid returns whether the CleanConfig has valid fields.
// Each pattern must be non-empty and not whitespace-only; glob safety beyond
// that (absolute paths, parent traversal) is enforced by internal/clean at
// run time, where the base directory is known.
func (c CleanConfig) IsValid() (bool, []error) {
	var errs []error
	for i, pattern := range c.Patterns {
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, fmt.Errorf("clean.patterns[%d]: pattern must be non-empty", i))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidCleanConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCleanConfigError.
func (e *InvalidCleanConfigError) Error() string {
	return fmt.Sprintf("invalid clean config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns the sentinel error plus the field errors so errors.Is()
// reaches both the category and the individual problems.
func (e *InvalidCleanConfigError) Unwrap() []error {
	return append([]error{ErrInvalidCleanConfig}, e.FieldErrors...)
}

// IsValid returns whether the WatchConfig has valid fields.
// DebounceMs must not be negative; zero means "fire immediately".
func (c WatchConfig) IsValid() (bool, []error) {
	var errs []error
	if c.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms: must not be negative, got %d", c.DebounceMs))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidWatchConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidWatchConfigError.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns the sentinel error plus the field errors so errors.Is()
// reaches both the category and the individual problems.
func (e *InvalidWatchConfigError) Unwrap() []error {
	return append([]error{ErrInvalidWatchConfig}, e.FieldErrors...)
}

// IsValid returns whether the Config has valid fields.
// It delegates to DefaultRunner.IsValid(), each SearchPaths entry's IsValid(),
// Clean.IsValid(), and Watch.IsValid(). Stats and UI have only bool fields
// and need no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.DefaultRunner.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	for _, path := range c.SearchPaths {
		if valid, fieldErrs := path.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if valid, fieldErrs := c.Clean.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Watch.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns the sentinel error plus the field errors so errors.Is()
// reaches both the category and the individual problems.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultRunner: RunnerNative,
		SearchPaths:   []SearchPath{},
		Stats: StatsConfig{
			Enabled: false,
		},
		Clean: CleanConfig{
			Patterns: []string{DefaultCleanPattern},
		},
		UI: UIConfig{
			Verbose: false,
			NoColor: false,
		},
		Watch: WatchConfig{
			DebounceMs: DefaultWatchDebounceMs,
		},
	}
}
