// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"taskpipe/internal/runner"
	"taskpipe/pkg/pipefile"
)

type (
	// Engine runs pipelines against a runner registry.
	Engine struct {
		registry *runner.Registry
		logger   *log.Logger

		// Stdout and Stderr receive streamed step output. Default to the
		// process streams.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Options are per-run knobs, mostly mapped from CLI flags.
	Options struct {
		// Mode overrides the pipeline's runner selection.
		Mode pipefile.RunnerMode
		// Silent suppresses per-step progress logging.
		Silent bool
		// Capture records step output instead of streaming it.
		Capture bool
		// WorkDir overrides the working directory for every step.
		WorkDir string
		// ExtraEnv adds environment variables for every step.
		ExtraEnv map[string]string
		// EnvFiles are --env-file dotenv paths, cwd-relative.
		EnvFiles []string
		// EnvVars are --env values, highest environment priority.
		EnvVars map[string]string
		// PositionalArgs are forwarded to every step as $1, $2, ...
		PositionalArgs []string
	}
)

// NewEngine creates an engine. A nil registry gets the default native+virtual
// registry; a nil logger gets the library default.
func NewEngine(registry *runner.Registry, logger *log.Logger) *Engine {
	if registry == nil {
		registry = runner.DefaultRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		registry: registry,
		logger:   logger,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
	}
}

// Run executes one pipeline: steps are drained front to back, each step runs
// only after the previous one succeeded, and the first failure stops the run
// with the remaining queue discarded. Cancellation is honored between steps;
// a cancelled context never reorders or skips past a pending failure.
func (e *Engine) Run(ctx context.Context, pf *pipefile.Pipefile, pl *pipefile.Pipeline, opts Options) *Report {
	start := time.Now()
	report := &Report{
		Pipeline:   pl.Name,
		StepsTotal: len(pl.Steps),
	}
	silent := opts.Silent || pl.Silent

	queue := slices.Clone(pl.Steps)
	for index := 1; len(queue) > 0; index++ {
		step := queue[0]
		queue = queue[1:]

		if err := ctx.Err(); err != nil {
			report.Failure = &StepFailure{
				Index: index,
				Dest:  destLabel(step.Dest),
				Run:   step.Run,
				Err:   fmt.Errorf("pipeline interrupted: %w", err),
			}
			report.Duration = time.Since(start)
			e.logger.Warn("pipeline interrupted", "pipeline", pl.Name, "completed", report.StepsRun, "total", report.StepsTotal)
			return report
		}

		if !silent {
			e.logger.Info("running step",
				"pipeline", pl.Name,
				"step", fmt.Sprintf("%d/%d", index, report.StepsTotal),
				"cmd", step.Run)
		}

		res := e.executeStep(ctx, pf, pl, &step, index, opts)
		report.StepsRun++

		if !res.Success() {
			report.Failure = &StepFailure{
				Index:    index,
				Dest:     destLabel(step.Dest),
				Run:      step.Run,
				ExitCode: res.ExitCode,
				Err:      res.Error,
			}
			report.Stdout = res.Output
			report.Stderr = res.ErrOutput
			report.Duration = time.Since(start)
			e.logger.Error("step failed",
				"pipeline", pl.Name,
				"dest", report.Failure.Dest,
				"step", fmt.Sprintf("%d/%d", index, report.StepsTotal),
				"exit", res.ExitCode.String())
			return report
		}

		if !silent {
			e.logger.Info("step complete",
				"pipeline", pl.Name,
				"dest", destLabel(step.Dest),
				"step", fmt.Sprintf("%d/%d", index, report.StepsTotal))
		}
	}

	report.Success = true
	report.Duration = time.Since(start)
	if !silent {
		e.logger.Info("pipeline complete",
			"pipeline", pl.Name,
			"steps", report.StepsRun,
			"took", report.Duration.Round(time.Millisecond))
	}
	return report
}

// executeStep dispatches one step to the registry.
func (e *Engine) executeStep(ctx context.Context, pf *pipefile.Pipefile, pl *pipefile.Pipeline, step *pipefile.Step, index int, opts Options) *runner.Result {
	ec := runner.NewExecContext(step, pl, pf)
	ec.Context = ctx
	ec.StepIndex = index
	ec.StepCount = len(pl.Steps)
	ec.Stdout = e.Stdout
	ec.Stderr = e.Stderr
	ec.WorkDir = opts.WorkDir
	ec.PositionalArgs = opts.PositionalArgs
	ec.EnvFiles = opts.EnvFiles
	ec.EnvVars = opts.EnvVars
	if opts.ExtraEnv != nil {
		ec.ExtraEnv = opts.ExtraEnv
	}
	if opts.Mode != "" {
		ec.Mode = opts.Mode
	}

	if opts.Capture {
		return e.registry.ExecuteCapture(ec)
	}
	return e.registry.Execute(ec)
}

// ResolveTargets maps CLI target names to pipelines in run order. A target
// may name a pipeline or a group; groups expand to their members in
// declaration order. With no targets, the pipefile's defaults apply (the
// "default" group when present, else every pipeline).
func ResolveTargets(pf *pipefile.Pipefile, targets []string) ([]*pipefile.Pipeline, error) {
	if len(targets) == 0 {
		targets = pf.DefaultTargets()
	}

	var out []*pipefile.Pipeline
	for _, name := range targets {
		if p, ok := pf.GetPipeline(name); ok {
			out = append(out, p)
			continue
		}
		if _, ok := pf.GetGroup(name); ok {
			members, err := pf.ResolveGroup(name)
			if err != nil {
				return nil, err
			}
			out = append(out, members...)
			continue
		}
		return nil, fmt.Errorf("target %q is neither a pipeline nor a group", name)
	}
	return out, nil
}

// RunTargets executes the named targets in order, stopping at the first
// pipeline that fails. Reports for every started pipeline are returned, the
// failed one last.
func (e *Engine) RunTargets(ctx context.Context, pf *pipefile.Pipefile, targets []string, opts Options) ([]*Report, error) {
	pipelines, err := ResolveTargets(pf, targets)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0, len(pipelines))
	for _, pl := range pipelines {
		report := e.Run(ctx, pf, pl, opts)
		reports = append(reports, report)
		if !report.Success {
			return reports, report.Failure
		}
	}
	return reports, nil
}
