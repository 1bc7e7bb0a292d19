// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"taskpipe/internal/issue"
	"taskpipe/pkg/cueutil"
	"taskpipe/pkg/fspath"
	"taskpipe/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "taskpipe"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// PipelinesDirName is the subdirectory of the config dir that holds
	// user-level pipefiles.
	PipelinesDirName = "pipelines"
)

//go:embed config_schema.cue
var configSchema string

// configFileName is the config file name with extension.
func configFileName() string {
	return ConfigFileName + "." + ConfigFileExt
}

// ConfigDir returns the taskpipe configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// PipelinesDir returns the directory for user-level pipefiles. Files placed
// here (e.g. ~/.config/taskpipe/pipelines/*.cue) are discovered from any
// working directory, with the lowest precedence.
func PipelinesDir() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, PipelinesDirName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}
	// An empty resolved path means no config file anywhere; defaults apply.
	if resolvedPath != "" {
		if err := loadConfigFile(v, resolvedPath); err != nil {
			return nil, "", err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate constraints the CUE schema cannot express (non-empty search
	// paths, non-negative debounce, and so on).
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the reported fields in your config file").
			WithSuggestion("Run 'taskpipe config init' to regenerate a valid default config").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// setDefaults seeds v with DefaultConfig values so a missing or partial
// config file still yields a fully populated Config.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("default_runner", defaults.DefaultRunner)
	v.SetDefault("search_paths", defaults.SearchPaths)
	v.SetDefault("stats.enabled", defaults.Stats.Enabled)
	v.SetDefault("clean.patterns", defaults.Clean.Patterns)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.no_color", defaults.UI.NoColor)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)
}

// resolveConfigPath picks the config file for opts. An explicit --config path
// must exist and is used exclusively. Otherwise the config directory is tried
// first, then a config.cue in the base (or working) directory. Empty return
// with nil error means no file was found and defaults alone apply.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		cfgPath := opts.ConfigFilePath.String()
		if !fileExists(cfgPath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(cfgPath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'taskpipe config show' to see default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", cfgPath)).
				BuildError()
		}
		return cfgPath, nil
	}

	cfgDir, err := configDirWithOverride(opts.ConfigDirPath.String())
	if err != nil {
		return "", err
	}

	localPath := configFileName()
	if opts.BaseDir != "" {
		localPath = fspath.JoinStr(opts.BaseDir, localPath).String()
	}

	for _, candidate := range []string{filepath.Join(cfgDir, configFileName()), localPath} {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadConfigFile parses the file at path into v, wrapping failures with
// remediation suggestions so commands can print something actionable.
func loadConfigFile(v *viper.Viper, path string) error {
	if err := loadCUEIntoViper(v, path); err != nil {
		return issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			WithSuggestion("See 'taskpipe config --help' for configuration options").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the embedded
// #Config schema, and merges the result into v.
//
// This does not go through cueutil.ParseAndDecode: viper owns the merge here,
// so the unified value decodes to a map that layers over SetDefault values
// instead of a struct, and validation runs with Concrete(false) because every
// config field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	cuectx := cuecontext.New()

	schemaValue := cuectx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := cuectx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// EnsurePipelinesDir creates the user pipelines directory if it doesn't exist
func EnsurePipelinesDir() error {
	pipesDir, err := PipelinesDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(pipesDir, 0o755)
}

// writeConfig renders cfg as CUE and writes it to the config directory,
// creating the directory as needed. With clobber false an existing file is
// left untouched.
func writeConfig(cfg *Config, clobber bool) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, configFileName())
	if !clobber {
		if _, err := os.Stat(cfgPath); err == nil {
			return nil
		}
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig writes a default config file unless one already exists.
func CreateDefaultConfig() error {
	return writeConfig(DefaultConfig(), false)
}

// Save writes the current configuration to file, replacing any existing one.
func Save(cfg *Config) error {
	return writeConfig(cfg, true)
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// Taskpipe Configuration File\n")
	sb.WriteString("// See https://github.com/taskpipe/taskpipe for documentation.\n\n")

	// Default runner
	sb.WriteString(fmt.Sprintf("default_runner: %q\n", cfg.DefaultRunner))

	// Search paths
	if len(cfg.SearchPaths) > 0 {
		sb.WriteString("\nsearch_paths: [\n")
		for _, path := range cfg.SearchPaths {
			sb.WriteString(fmt.Sprintf("\t%q,\n", path))
		}
		sb.WriteString("]\n")
	}

	// Stats config
	sb.WriteString("\nstats: {\n")
	sb.WriteString(fmt.Sprintf("\tenabled: %v\n", cfg.Stats.Enabled))
	sb.WriteString("}\n")

	// Clean config
	sb.WriteString("\nclean: {\n")
	sb.WriteString("\tpatterns: [\n")
	for _, pattern := range cfg.Clean.Patterns {
		sb.WriteString(fmt.Sprintf("\t\t%q,\n", pattern))
	}
	sb.WriteString("\t]\n")
	sb.WriteString("}\n")

	// UI config
	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString(fmt.Sprintf("\tno_color: %v\n", cfg.UI.NoColor))
	sb.WriteString("}\n")

	// Watch config
	sb.WriteString("\nwatch: {\n")
	sb.WriteString(fmt.Sprintf("\tdebounce_ms: %d\n", cfg.Watch.DebounceMs))
	sb.WriteString("}\n")

	return sb.String()
}
