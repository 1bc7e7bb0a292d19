// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"taskpipe/internal/clean"
	"taskpipe/internal/config"
	"taskpipe/internal/discovery"
	"taskpipe/internal/issue"
	"taskpipe/internal/logging"
	"taskpipe/pkg/pipefile"
)

var (
	// cleanDryRun lists what would be deleted without touching anything.
	cleanDryRun bool

	cleanCmd = &cobra.Command{
		Use:   "clean [pattern...]",
		Short: "Delete build outputs matched by the clean patterns",
		Long: `Delete the files and directories matched by the clean patterns,
relative to the pipefile directory. Patterns come from the arguments,
falling back to the pipefile's clean list and then the configured
default.

Absolute patterns and patterns escaping the base directory are
refused.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(args)
		},
	}
)

func init() {
	cleanCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "list matches without deleting them")
}

// runClean deletes whatever the effective patterns match.
func runClean(args []string) error {
	cfg := config.Get()
	logger := logging.New(logging.Options{Verbose: verbose})

	// The pipefile is optional here: with none around, the configured
	// patterns still clean the working directory.
	baseDir := "."
	var pf *pipefile.Pipefile
	if file, err := discovery.New(cfg).LoadFirst(); err == nil {
		pf = file.Pipefile
		baseDir = pf.Dir()
	}

	patterns := cleanPatterns(pf, cfg, args)
	if len(patterns) == 0 {
		logger.Info("nothing to clean, no patterns given")
		return nil
	}

	opts := clean.Options{DryRun: cleanDryRun, Logger: logger}
	if _, err := clean.Run(baseDir, patterns, opts); err != nil {
		if errors.Is(err, clean.ErrUnsafePattern) {
			printIssue(issue.CleanRefusedId)
		}
		return err
	}
	return nil
}

// cleanPatterns resolves the effective clean patterns: explicit arguments win
// over the pipefile's clean list, which wins over the configured default.
func cleanPatterns(pf *pipefile.Pipefile, cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if pf != nil && len(pf.Clean) > 0 {
		return pf.Clean
	}
	return cfg.Clean.Patterns
}
