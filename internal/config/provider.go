// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"fmt"

	"taskpipe/pkg/types"
)

// ErrInvalidLoadOptions is the sentinel error wrapped by InvalidLoadOptionsError.
var ErrInvalidLoadOptions = errors.New("invalid load options")

type (
	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath types.FilesystemPath
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath types.FilesystemPath
		// BaseDir anchors the working-directory config.cue fallback when set.
		// Empty means the process working directory.
		BaseDir types.FilesystemPath
	}

	// InvalidLoadOptionsError is returned when LoadOptions carry unusable
	// paths. It wraps ErrInvalidLoadOptions for errors.Is() compatibility and
	// collects field-level validation errors.
	InvalidLoadOptionsError struct {
		FieldErrors []error
	}
)

// Validate returns an error if any non-empty option is not a usable path.
// Empty fields are valid: the zero value means "use the default lookup".
func (o LoadOptions) Validate() error {
	var fieldErrs []error

	if o.ConfigFilePath != "" {
		if err := o.ConfigFilePath.Validate(); err != nil {
			fieldErrs = append(fieldErrs, fmt.Errorf("config file path: %w", err))
		}
	}
	if o.ConfigDirPath != "" {
		if err := o.ConfigDirPath.Validate(); err != nil {
			fieldErrs = append(fieldErrs, fmt.Errorf("config dir path: %w", err))
		}
	}
	if o.BaseDir != "" {
		if err := o.BaseDir.Validate(); err != nil {
			fieldErrs = append(fieldErrs, fmt.Errorf("base dir: %w", err))
		}
	}

	if len(fieldErrs) > 0 {
		return &InvalidLoadOptionsError{FieldErrors: fieldErrs}
	}
	return nil
}

// Error implements the error interface for InvalidLoadOptionsError.
func (e *InvalidLoadOptionsError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid load options: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid load options: %d field errors", len(e.FieldErrors))
}

// Unwrap returns the sentinel error plus the field errors so errors.Is()
// reaches both the category and the individual problems.
func (e *InvalidLoadOptionsError) Unwrap() []error {
	return append([]error{ErrInvalidLoadOptions}, e.FieldErrors...)
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source. Options are validated
// before any filesystem access happens.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
