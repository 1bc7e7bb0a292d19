// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"taskpipe/pkg/types"
)

var (
	// globalConfig caches the loaded configuration for package-level access.
	globalConfig *Config

	// configPath records where globalConfig was loaded from
	// (empty when defaults were used).
	configPath string

	// errLastLoad stores the most recent load failure so Get() can fall back
	// to defaults without losing the error.
	errLastLoad error

	// configFilePathOverride forces Load to read a specific config file.
	// Set from the --config flag before any command runs.
	configFilePathOverride string

	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string
)

// Load reads the configuration (honoring any path override), caches it, and
// returns it. Subsequent calls return the cached value until Reset or
// ResetCache is called.
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: types.FilesystemPath(configFilePathOverride),
	})
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	configPath = path
	return globalConfig, nil
}

// Get returns the cached configuration, loading it on first use. If loading
// fails it stores the error (retrievable via LastLoadError) and returns
// defaults so callers always get a usable config.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		errLastLoad = err
		return DefaultConfig()
	}
	errLastLoad = nil
	return cfg
}

// LastLoadError returns the error from the most recent Get() that had to
// fall back to defaults, or nil when the last load succeeded.
func LastLoadError() error {
	return errLastLoad
}

// ConfigFilePath returns the path the cached configuration was loaded from.
// It is empty when only defaults were used or nothing has been loaded yet.
func ConfigFilePath() string {
	return configPath
}

// SetConfigFilePathOverride forces subsequent Load calls to read the given
// config file. Invalidates any cached configuration.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
	ResetCache()
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
// Invalidates any cached configuration.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
	ResetCache()
}

// ResetCache clears the cached config and last load error but preserves
// overrides. Use when a test has written a new config file and wants the
// next Load to pick it up.
func ResetCache() {
	globalConfig = nil
	configPath = ""
	errLastLoad = nil
}

// Reset clears the cached config and all overrides. Call from test cleanup
// to restore defaults.
func Reset() {
	ResetCache()
	configFilePathOverride = ""
	configDirOverride = ""
}
