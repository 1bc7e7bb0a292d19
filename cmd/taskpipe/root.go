// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"taskpipe/internal/config"
	"taskpipe/internal/discovery"
	"taskpipe/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "taskpipe",
		Short: "A sequential pipeline runner for build tasks",
		Long: TitleStyle.Render("taskpipe") + SubtitleStyle.Render(" - a sequential pipeline runner for build tasks") + `

taskpipe runs named pipelines of shell commands strictly in order,
stopping at the first failure, and reports how well each declared
build artifact compresses (raw size vs gzip size).

Pipelines are defined in a 'pipefile' (CUE or TOML format) discovered
from the current directory, configured search paths, or your user
pipelines directory.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Create a pipefile:  taskpipe init
  2. List the targets:   taskpipe list
  3. Run one:            taskpipe run build

` + SubtitleStyle.Render("Examples:") + `
  taskpipe run                 Run the default targets
  taskpipe run build test      Run 'build' then 'test'
  taskpipe run build --watch   Re-run 'build' when files change
  taskpipe stats dist/*.js     Report gzip sizes for files
  taskpipe clean --dry-run     Preview cleanup deletions`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/taskpipe/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(checksumCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newExplainCommand())
	rootCmd.AddCommand(newCompletionCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Always surface config loading errors to the user
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}

	// Propagate no_color so lipgloss, glamour, and the logger all pick it up.
	if cfg != nil && cfg.UI.NoColor {
		_ = os.Setenv("NO_COLOR", "1")
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderDiagnostics writes structured discovery diagnostics to w with a
// severity prefix. Warnings never abort a command; errors usually accompany
// a returned error.
func renderDiagnostics(diags []discovery.Diagnostic, w io.Writer) {
	for _, diag := range diags {
		prefix := WarningStyle.Render("warning")
		if diag.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("error")
		}

		if diag.Path != "" {
			fmt.Fprintf(w, "%s: %s (%s)\n", prefix, diag.Message, diag.Path)
			continue
		}

		fmt.Fprintf(w, "%s: %s\n", prefix, diag.Message)
	}
}

// printIssue renders the catalog page for id to stderr. Rendering failures
// are swallowed: the page supplements the error being returned, it never
// replaces it.
func printIssue(id issue.Id) {
	rendered, err := issue.Get(id).Render(issueStyle())
	if err != nil {
		return
	}
	fmt.Fprint(os.Stderr, rendered)
}

// issueStyle picks the glamour style for issue pages, honoring NO_COLOR.
func issueStyle() string {
	if os.Getenv("NO_COLOR") != "" {
		return "notty"
	}
	return "dark"
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
