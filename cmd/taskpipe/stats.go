// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"taskpipe/internal/checksum"
	"taskpipe/internal/issue"
	"taskpipe/internal/logging"
	"taskpipe/internal/stats"
	"taskpipe/pkg/pipefile"
)

var (
	// statsChecksum selects an optional per-file digest; a bare --checksum
	// means md5.
	statsChecksum string

	statsCmd = &cobra.Command{
		Use:   "stats [file|glob...]",
		Short: "Report raw and gzip-compressed sizes for files",
		Long: `Report each file's size on disk and its size after gzip compression,
with the relative change between the two. Arguments may be plain paths
or globs like 'dist/**/*.js'.

A path that matches nothing is an error: stats exist to verify build
outputs, and a missing artifact usually means the build did not
produce it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatsReport(args)
		},
	}
)

func init() {
	statsCmd.Flags().StringVar(&statsChecksum, "checksum", "", "also print a content digest (md5, sha256 or blake3)")
	statsCmd.Flags().Lookup("checksum").NoOptDefVal = string(checksum.MD5)
}

// runStatsReport expands the path arguments and prints a size report for
// every match.
func runStatsReport(args []string) error {
	var algo checksum.Algorithm
	if statsChecksum != "" {
		parsed, err := checksum.ParseAlgorithm(statsChecksum)
		if err != nil {
			return err
		}
		algo = parsed
	}

	logger := logging.New(logging.Options{Verbose: verbose})

	paths, err := expandGlobArgs(args)
	if err != nil {
		return err
	}

	steps := make([]pipefile.Step, 0, len(paths))
	for _, path := range paths {
		steps = append(steps, pipefile.Step{Artifact: path})
	}

	if _, err := stats.Run(steps, stats.Options{Enabled: true, Checksum: algo}, logger); err != nil {
		printIssue(issue.ArtifactMissingId)
		return err
	}
	return nil
}

// expandGlobArgs expands doublestar patterns against the filesystem. An
// argument matching nothing is kept literally so a missing file surfaces as
// an error instead of vanishing from the report.
func expandGlobArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			matches = []string{arg}
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
