// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"taskpipe/internal/config"
	"taskpipe/internal/issue"
	"taskpipe/internal/logging"
)

// newConfigCommand creates the `taskpipe config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage taskpipe configuration",
		Long: `Manage taskpipe configuration.

Configuration is stored in:
  - Linux: ~/.config/taskpipe/config.cue
  - macOS: ~/Library/Application Support/taskpipe/config.cue
  - Windows: %APPDATA%\taskpipe\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		printIssue(issue.ConfigLoadFailedId)
		return err
	}

	keyStyle := TargetStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path := config.ConfigFilePath(); path != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("default_runner"), valueStyle.Render(cfg.DefaultRunner.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("search_paths"))
	if len(cfg.SearchPaths) == 0 {
		fmt.Printf("  %s\n", SubtitleStyle.Render("(none configured)"))
	} else {
		for _, path := range cfg.SearchPaths {
			fmt.Printf("  - %s\n", valueStyle.Render(path.String()))
		}
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("stats"))
	fmt.Printf("  enabled: %s\n", valueStyle.Render(strconv.FormatBool(cfg.Stats.Enabled)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("clean"))
	if len(cfg.Clean.Patterns) == 0 {
		fmt.Printf("  %s\n", SubtitleStyle.Render("(no patterns configured)"))
	} else {
		for _, pattern := range cfg.Clean.Patterns {
			fmt.Printf("  - %s\n", valueStyle.Render(pattern))
		}
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.Verbose)))
	fmt.Printf("  no_color: %s\n", valueStyle.Render(strconv.FormatBool(cfg.UI.NoColor)))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("watch"))
	fmt.Printf("  debounce_ms: %s\n", valueStyle.Render(strconv.Itoa(cfg.Watch.DebounceMs)))

	return nil
}

func initConfig() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err = config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s/config.cue\n", SuccessStyle.Render("✓"), cfgDir)

	// Also create the user pipelines directory
	pipelinesDir, err := config.PipelinesDir()
	if err == nil {
		if mkdirErr := config.EnsurePipelinesDir(); mkdirErr != nil {
			logger := logging.New(logging.Options{Verbose: verbose})
			logger.Warn("failed to create pipelines directory", "path", pipelinesDir, "err", mkdirErr)
		} else {
			fmt.Printf("%s Created pipelines directory at %s\n", SuccessStyle.Render("✓"), pipelinesDir)
		}
	}

	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/config.cue\n", cfgDir)

	pipelinesDir, err := config.PipelinesDir()
	if err == nil {
		fmt.Printf("Pipelines directory: %s\n", pipelinesDir)
	}

	return nil
}

func setConfigValue(key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch key {
	case "default_runner":
		if value != "native" && value != "virtual" {
			return fmt.Errorf("invalid default_runner: must be 'native' or 'virtual'")
		}
		cfg.DefaultRunner = config.RunnerMode(value)

	case "stats.enabled":
		cfg.Stats.Enabled = value == "true" || value == "1"

	case "ui.verbose":
		cfg.UI.Verbose = value == "true" || value == "1"

	case "ui.no_color":
		cfg.UI.NoColor = value == "true" || value == "1"

	case "watch.debounce_ms":
		ms, parseErr := strconv.Atoi(value)
		if parseErr != nil || ms < 0 {
			return fmt.Errorf("invalid watch.debounce_ms: must be a non-negative integer")
		}
		cfg.Watch.DebounceMs = ms

	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: default_runner, stats.enabled, ui.verbose, ui.no_color, watch.debounce_ms", key)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
