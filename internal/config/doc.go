// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/taskpipe/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/taskpipe/config.cue on macOS, %APPDATA%\taskpipe\config.cue
// on Windows). The package provides type-safe configuration access and supports the default
// runner mode, pipefile search paths, stats reporting, cleanup patterns, UI settings, and
// watch-mode debouncing.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
