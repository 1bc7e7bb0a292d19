// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"taskpipe/pkg/pipefile"
)

// Kind constants for the registered runners.
const (
	KindNative  Kind = "native"
	KindVirtual Kind = "virtual"
)

type (
	// ExecContext contains all information needed to execute one step.
	ExecContext struct {
		// Step is the step to execute.
		Step *pipefile.Step
		// StepIndex is the 1-based position of the step in its pipeline.
		StepIndex int
		// StepCount is the total number of steps in the pipeline.
		StepCount int
		// Pipeline is the pipeline the step belongs to.
		Pipeline *pipefile.Pipeline
		// Pipefile is the parent document.
		Pipefile *pipefile.Pipefile
		// Context is the Go context for cancellation.
		Context context.Context
		// Stdout is where to write standard output.
		Stdout io.Writer
		// Stderr is where to write standard error.
		Stderr io.Writer
		// Stdin is where to read standard input.
		Stdin io.Reader
		// ExtraEnv contains additional environment variables.
		ExtraEnv map[string]string
		// WorkDir overrides the working directory.
		WorkDir string
		// Mode is the runner selected for this execution.
		Mode pipefile.RunnerMode
		// PositionalArgs are passed to the step as shell positional
		// parameters ($1, $2, ...).
		PositionalArgs []string
		// EnvFiles are dotenv paths given via the --env-file flag,
		// resolved against Cwd.
		EnvFiles []string
		// EnvVars are values given via the --env flag. They override
		// every other environment source.
		EnvVars map[string]string
		// Cwd is the directory --env-file paths resolve against. When
		// empty, os.Getwd() is used.
		Cwd string
	}

	// Result contains the result of a step execution.
	Result struct {
		// ExitCode is the exit code of the step command.
		ExitCode ExitCode
		// Error contains any infrastructure error that occurred.
		Error error
		// Output contains captured stdout (if captured).
		Output string
		// ErrOutput contains captured stderr (if captured).
		ErrOutput string
	}

	// Runner defines the interface for step execution.
	Runner interface {
		// Name returns the runner name.
		Name() string
		// Execute runs one step in this runner.
		Execute(ctx *ExecContext) *Result
		// Available returns whether this runner works on the current system.
		Available() bool
		// Validate checks if a step can be executed with this runner.
		Validate(ctx *ExecContext) error
	}

	// CapturingRunner is implemented by runners that support capturing output.
	CapturingRunner interface {
		// ExecuteCapture runs a step and captures stdout/stderr.
		ExecuteCapture(ctx *ExecContext) *Result
	}

	// InteractiveRunner is implemented by runners that support PTY attachment,
	// so steps that probe for a terminal behave as if run by hand.
	InteractiveRunner interface {
		Runner

		// SupportsInteractive returns true if this runner can run interactively.
		SupportsInteractive() bool

		// PrepareInteractive returns a command ready for PTY attachment. The
		// caller must invoke the Cleanup function after execution completes.
		PrepareInteractive(ctx *ExecContext) (*PreparedCommand, error)
	}

	// PreparedCommand contains a command ready for execution along with any
	// cleanup function.
	PreparedCommand struct {
		// Cmd is the prepared exec.Cmd, not yet started.
		Cmd *exec.Cmd
		// Cleanup is called after execution. May be nil.
		Cleanup func()
	}

	// Kind identifies a registered runner.
	Kind string

	// Registry holds all available runners.
	Registry struct {
		runners map[Kind]Runner
	}
)

// NewExecContext creates an execution context with defaults. The runner mode
// resolves through the pipeline's own setting, then the pipefile default.
func NewExecContext(step *pipefile.Step, pl *pipefile.Pipeline, pf *pipefile.Pipefile) *ExecContext {
	return &ExecContext{
		Step:     step,
		Pipeline: pl,
		Pipefile: pf,
		Context:  context.Background(),
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Stdin:    os.Stdin,
		ExtraEnv: make(map[string]string),
		Mode:     pf.EffectiveRunner(pl),
	}
}

// Success returns true if the step executed successfully.
func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Error == nil
}

// NewSuccessResult returns a Result for a step that exited zero.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult returns a Result for a process that terminated normally
// with the given code. Reserve NewErrorResult for infrastructure failures.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// NewErrorResult returns a Result carrying an infrastructure error alongside
// the exit code reported to the caller.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// GetInteractiveRunner returns the runner as an InteractiveRunner if it
// supports interactive mode, otherwise nil.
func GetInteractiveRunner(rt Runner) InteractiveRunner {
	if ir, ok := rt.(InteractiveRunner); ok && ir.SupportsInteractive() {
		return ir
	}
	return nil
}

// NewRegistry creates an empty runner registry.
func NewRegistry() *Registry {
	return &Registry{
		runners: make(map[Kind]Runner),
	}
}

// DefaultRegistry returns a registry with the native and virtual runners
// registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindNative, NewNativeRunner())
	r.Register(KindVirtual, NewVirtualRunner())
	return r
}

// Register adds a runner to the registry.
func (r *Registry) Register(kind Kind, rt Runner) {
	r.runners[kind] = rt
}

// Get returns a runner by kind.
func (r *Registry) Get(kind Kind) (Runner, error) {
	rt, ok := r.runners[kind]
	if !ok {
		return nil, fmt.Errorf("runner '%s' not registered", kind)
	}
	return rt, nil
}

// GetForContext returns the runner selected by the execution context's mode.
func (r *Registry) GetForContext(ctx *ExecContext) (Runner, error) {
	return r.Get(Kind(ctx.Mode))
}

// Available returns the kinds of all runners usable on this system.
func (r *Registry) Available() []Kind {
	var kinds []Kind
	for kind, rt := range r.runners {
		if rt.Available() {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Execute runs a step using the runner selected by the execution context,
// checking availability and validating first.
func (r *Registry) Execute(ctx *ExecContext) *Result {
	rt, err := r.GetForContext(ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}

	if !rt.Available() {
		return NewErrorResult(1, fmt.Errorf("runner '%s' is not available on this system", rt.Name()))
	}

	if err := rt.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	return rt.Execute(ctx)
}

// ExecuteCapture runs a step capturing its output when the selected runner
// supports capture, falling back to Execute otherwise.
func (r *Registry) ExecuteCapture(ctx *ExecContext) *Result {
	rt, err := r.GetForContext(ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}

	if !rt.Available() {
		return NewErrorResult(1, fmt.Errorf("runner '%s' is not available on this system", rt.Name()))
	}

	if err := rt.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}

	if cr, ok := rt.(CapturingRunner); ok {
		return cr.ExecuteCapture(ctx)
	}
	return rt.Execute(ctx)
}

// EnvToSlice converts a map of environment variables to a slice.
func EnvToSlice(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}

// FilterStepEnvVars filters out the per-step variables taskpipe injects
// (TASKPIPE_PIPELINE, TASKPIPE_STEP, TASKPIPE_STEPS) from the given
// environment slice. This prevents leakage when a step invokes taskpipe
// itself.
func FilterStepEnvVars(environ []string) []string {
	result := make([]string, 0, len(environ))
	for _, e := range environ {
		idx := findEnvSeparator(e)
		if idx == -1 {
			// Malformed env var, keep it
			result = append(result, e)
			continue
		}
		if shouldFilterEnvVar(e[:idx]) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// findEnvSeparator returns the index of the '=' separator in an environment
// variable string.
func findEnvSeparator(e string) int {
	for i := 0; i < len(e); i++ {
		if e[i] == '=' {
			return i
		}
	}
	return -1
}

// shouldFilterEnvVar returns true for variable names taskpipe injects per
// step and must not leak into nested invocations.
func shouldFilterEnvVar(name string) bool {
	switch name {
	case EnvPipelineName, EnvStepIndex, EnvStepCount:
		return true
	}
	return false
}
