// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"taskpipe/internal/clean"
	"taskpipe/internal/config"
	"taskpipe/internal/discovery"
	"taskpipe/internal/issue"
	"taskpipe/internal/logging"
	"taskpipe/internal/pipeline"
	"taskpipe/internal/stats"
	"taskpipe/internal/watch"
	"taskpipe/pkg/pipefile"
)

var (
	// runRunner overrides the runner for every step of this invocation.
	runRunner string
	// runSilent suppresses per-step progress logging.
	runSilent bool
	// runStats / runNoStats force the artifact stats pass on or off.
	runStats   bool
	runNoStats bool
	// runWatch keeps the process alive, re-running on file changes.
	runWatch bool
	// runCleanFirst deletes the clean patterns before the first step.
	runCleanFirst bool
	// runEnvVars / runEnvFiles feed extra environment into every step.
	runEnvVars  []string
	runEnvFiles []string
	// runPipefilePath bypasses discovery with an explicit pipefile.
	runPipefilePath string

	// runCmd is the parent command for all discovered targets
	runCmd = &cobra.Command{
		Use:   "run [target...] [-- step-args...]",
		Short: "Run pipelines and groups from the pipefile",
		Long: `Run the named pipelines or groups strictly in order.

Steps inside a pipeline execute one at a time, each only after the
previous one succeeded. The first failing step stops everything:
remaining steps and remaining targets are skipped, and the step's
exit code becomes taskpipe's exit code.

With no targets, the 'default' group runs when the pipefile defines
one, otherwise every pipeline in declaration order.

Arguments after "--" are forwarded to every step as the positional
shell parameters $1, $2, ...

Discovered targets also register as subcommands, so both forms work:
  taskpipe run build
  taskpipe run build test -- release`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, stepArgs := splitDashArgs(cmd, args)
			return executeTargets(cmd.Context(), targets, stepArgs)
		},
		ValidArgsFunction: completeTargets,
	}
)

func init() {
	// Persistent so the dynamically registered target subcommands inherit them.
	flags := runCmd.PersistentFlags()
	flags.StringVarP(&runRunner, "runner", "r", "", "override the runner (native or virtual)")
	flags.BoolVarP(&runSilent, "silent", "s", false, "suppress per-step progress logging")
	flags.BoolVar(&runStats, "stats", false, "report artifact sizes after a successful run")
	flags.BoolVar(&runNoStats, "no-stats", false, "skip artifact size reporting")
	flags.BoolVarP(&runWatch, "watch", "w", false, "re-run the targets when watched files change")
	flags.BoolVar(&runCleanFirst, "clean", false, "delete the clean patterns before running")
	flags.StringArrayVarP(&runEnvVars, "env", "e", nil, "set an environment variable for every step (KEY=VALUE, repeatable)")
	flags.StringArrayVar(&runEnvFiles, "env-file", nil, "load environment variables from a dotenv file (repeatable)")
	flags.StringVarP(&runPipefilePath, "pipefile", "f", "", "use a specific pipefile instead of discovering one")

	// Dynamically add discovered targets as subcommands.
	// This happens at init time to enable shell completion.
	registerTargetCommands()
}

// registerTargetCommands adds discovered targets as subcommands of run.
func registerTargetCommands() {
	cfg := config.Get()
	disc := discovery.New(cfg)

	result, err := disc.DiscoverTargetSet()
	if err != nil {
		return // Silently fail during init
	}

	for _, target := range result.Targets {
		if strings.ContainsAny(target.Name, " \t") {
			// Not addressable as a subcommand; still runnable as a quoted
			// positional target.
			continue
		}

		name := target.Name
		short := target.Description
		if short == "" {
			short = fmt.Sprintf("Run the '%s' %s", name, target.Kind)
		}

		runCmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: short,
			Long:  fmt.Sprintf("Run the '%s' %s defined in %s.", name, target.Kind, target.FilePath),
			RunE: func(cmd *cobra.Command, args []string) error {
				extra, stepArgs := splitDashArgs(cmd, args)
				return executeTargets(cmd.Context(), append([]string{name}, extra...), stepArgs)
			},
		})
	}
}

// completeTargets provides shell completion for target names.
func completeTargets(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg := config.Get()
	disc := discovery.New(cfg)

	targets, err := disc.GetTargetsWithPrefix(toComplete)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	completions := make([]string, 0, len(targets))
	for _, target := range targets {
		if target.Description != "" {
			completions = append(completions, target.Name+"\t"+target.Description)
			continue
		}
		completions = append(completions, target.Name)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// splitDashArgs separates target names from step arguments: everything after
// "--" is forwarded to the steps as positional parameters.
func splitDashArgs(cmd *cobra.Command, args []string) (targets, stepArgs []string) {
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		return args[:at], args[at:]
	}
	return args, nil
}

// executeTargets runs the named targets through the pipeline engine, applying
// the run flags: clean before, stats after, watch around everything.
func executeTargets(ctx context.Context, targets, stepArgs []string) error {
	cfg := config.Get()
	logger := logging.New(logging.Options{Verbose: verbose})

	pf, err := loadRunPipefile(cfg)
	if err != nil {
		return err
	}
	applyConfigRunner(pf, cfg)

	mode := pipefile.RunnerMode(runRunner)
	if !mode.IsValid() {
		printIssue(issue.RunnerUnavailableId)
		return issue.NewErrorContext().
			WithOperation("select runner").
			WithResource(runRunner).
			WithSuggestions(
				"valid runners are 'native' and 'virtual'",
				"drop --runner to use the pipefile default",
			).
			WithIssue(issue.RunnerUnavailableId).
			BuildError()
	}

	envVars, err := parseEnvAssignments(runEnvVars)
	if err != nil {
		return err
	}

	// Resolve targets up front so an unknown name fails before any step runs
	// or any watch starts.
	pipelines, err := pipeline.ResolveTargets(pf, targets)
	if err != nil {
		printIssue(issue.TargetNotFoundId)
		return err
	}

	opts := pipeline.Options{
		Mode:           mode,
		Silent:         runSilent,
		EnvFiles:       runEnvFiles,
		EnvVars:        envVars,
		PositionalArgs: stepArgs,
	}
	engine := pipeline.NewEngine(nil, logger)

	runOnce := func(runCtx context.Context) error {
		if shouldCleanFirst(pf, targets) {
			patterns := cleanPatterns(pf, cfg, nil)
			if _, cleanErr := clean.Run(pf.Dir(), patterns, clean.Options{Logger: logger}); cleanErr != nil {
				printIssue(issue.CleanRefusedId)
				return cleanErr
			}
		}

		if _, runErr := engine.RunTargets(runCtx, pf, targets, opts); runErr != nil {
			var failure *pipeline.StepFailure
			if errors.As(runErr, &failure) {
				printIssue(issue.StepFailedId)
				code := failure.ExitCode
				if code == 0 {
					code = 1
				}
				return &ExitError{Code: code, Err: failure}
			}
			return runErr
		}

		if resolveStatsEnabled(runStats, runNoStats, pf, cfg) {
			statsOpts := stats.Options{Enabled: true, BaseDir: pf.Dir()}
			if _, statsErr := stats.Run(collectSteps(pipelines), statsOpts, logger); statsErr != nil {
				printIssue(issue.ArtifactMissingId)
				return statsErr
			}
		}
		return nil
	}

	if !runWatch {
		return runOnce(ctx)
	}

	// Watch mode: a failing run is reported but keeps the session alive, the
	// same way failures during re-runs do.
	if err := runOnce(ctx); err != nil {
		logger.Error("run failed", "err", err)
	}

	watcher, err := watch.New(watch.Config{
		BaseDir:  pf.Dir(),
		Patterns: watchPatterns(pipelines),
		Ignore:   artifactIgnores(pipelines),
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		OnChange: func(changeCtx context.Context, changed []string) error {
			logger.Info("change detected", "files", len(changed))
			return runOnce(changeCtx)
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}

// loadRunPipefile parses the --pipefile override or discovers the nearest
// pipefile.
func loadRunPipefile(cfg *config.Config) (*pipefile.Pipefile, error) {
	if runPipefilePath != "" {
		pf, err := pipefile.Parse(runPipefilePath)
		if err != nil {
			printIssue(issue.PipefileParseErrorId)
			return nil, err
		}
		return pf, nil
	}

	disc := discovery.New(cfg)
	file, err := disc.LoadFirst()
	if err != nil {
		if errors.Is(err, discovery.ErrNoPipefile) {
			printIssue(issue.PipefileNotFoundId)
		} else {
			printIssue(issue.PipefileParseErrorId)
		}
		return nil, err
	}
	return file.Pipefile, nil
}

// applyConfigRunner fills the pipefile's default runner from config, keeping
// the resolution order: pipeline, pipefile, config, native.
func applyConfigRunner(pf *pipefile.Pipefile, cfg *config.Config) {
	if pf.DefaultRunner == "" && cfg.DefaultRunner != "" {
		pf.DefaultRunner = pipefile.RunnerMode(cfg.DefaultRunner)
	}
}

// parseEnvAssignments splits --env KEY=VALUE flags into a map.
func parseEnvAssignments(assignments []string) (map[string]string, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env value %q (expected KEY=VALUE)", assignment)
		}
		vars[key] = value
	}
	return vars, nil
}

// resolveStatsEnabled decides whether the stats pass runs after a successful
// run: --no-stats beats --stats beats the pipefile beats the config.
func resolveStatsEnabled(statsFlag, noStatsFlag bool, pf *pipefile.Pipefile, cfg *config.Config) bool {
	if noStatsFlag {
		return false
	}
	if statsFlag {
		return true
	}
	if pf.Stats.Enabled {
		return true
	}
	return cfg.Stats.Enabled
}

// shouldCleanFirst reports whether the clean patterns run before the targets:
// either --clean was given or a named group opts in with clean: true. With no
// explicit targets the default group's setting applies.
func shouldCleanFirst(pf *pipefile.Pipefile, targets []string) bool {
	if runCleanFirst {
		return true
	}
	if len(targets) == 0 {
		g, ok := pf.GetGroup(pipefile.DefaultGroupName)
		return ok && g.Clean
	}
	for _, name := range targets {
		if g, ok := pf.GetGroup(name); ok && g.Clean {
			return true
		}
	}
	return false
}

// collectSteps concatenates the pipelines' steps in run order for the stats
// pass.
func collectSteps(pipelines []*pipefile.Pipeline) []pipefile.Step {
	var steps []pipefile.Step
	for _, pl := range pipelines {
		steps = append(steps, pl.Steps...)
	}
	return steps
}

// watchPatterns merges the pipelines' watch globs, deduplicated in
// declaration order. Empty means "watch everything not ignored".
func watchPatterns(pipelines []*pipefile.Pipeline) []string {
	var patterns []string
	seen := make(map[string]bool)
	for _, pl := range pipelines {
		for _, pat := range pl.Watch {
			if seen[pat] {
				continue
			}
			seen[pat] = true
			patterns = append(patterns, pat)
		}
	}
	return patterns
}

// artifactIgnores lists the pipelines' declared artifacts so a finished run
// does not immediately re-trigger itself.
func artifactIgnores(pipelines []*pipefile.Pipeline) []string {
	var ignores []string
	seen := make(map[string]bool)
	for _, pl := range pipelines {
		for _, step := range pl.Steps {
			if step.Artifact == "" || seen[step.Artifact] {
				continue
			}
			seen[step.Artifact] = true
			ignores = append(ignores, step.Artifact)
		}
	}
	return ignores
}
