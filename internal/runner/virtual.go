// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner executes steps using the embedded mvdan/sh interpreter.
// It behaves the same on every platform and needs no system shell.
type VirtualRunner struct {
	// Env builds the step environment. Defaults to DefaultEnvBuilder.
	Env EnvBuilder
}

// NewVirtualRunner creates a new virtual runner.
func NewVirtualRunner() *VirtualRunner {
	return &VirtualRunner{Env: NewDefaultEnvBuilder()}
}

// Name returns the runner name.
func (r *VirtualRunner) Name() string {
	return "virtual"
}

// Available returns true; the interpreter is built in.
func (r *VirtualRunner) Available() bool {
	return true
}

// Validate checks that the step command parses as POSIX shell.
func (r *VirtualRunner) Validate(ctx *ExecContext) error {
	if ctx.Step == nil {
		return fmt.Errorf("no step selected for execution")
	}
	if strings.TrimSpace(ctx.Step.Run) == "" {
		return fmt.Errorf("step has no command to execute")
	}

	if _, err := syntax.NewParser().Parse(strings.NewReader(ctx.Step.Run), "step"); err != nil {
		return fmt.Errorf("step syntax error: %w", err)
	}

	return nil
}

// Execute runs a step in the embedded interpreter, streaming output to the
// context's writers.
func (r *VirtualRunner) Execute(ctx *ExecContext) *Result {
	return r.run(ctx, ctx.Stdin, ctx.Stdout, ctx.Stderr, nil)
}

// ExecuteCapture runs a step and captures its output.
func (r *VirtualRunner) ExecuteCapture(ctx *ExecContext) *Result {
	var stdout, stderr bytes.Buffer
	captured := func(res *Result) {
		res.Output = stdout.String()
		res.ErrOutput = stderr.String()
	}
	return r.run(ctx, nil, &stdout, &stderr, captured)
}

// run parses the step command and executes it with the given stdio. The
// finish hook, when non-nil, is applied to the result before returning so
// capture callers can collect their buffers on every code path.
func (r *VirtualRunner) run(ctx *ExecContext, stdin io.Reader, stdout, stderr io.Writer, finish func(*Result)) *Result {
	done := func(res *Result) *Result {
		if finish != nil {
			finish(res)
		}
		return res
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(ctx.Step.Run), "step")
	if err != nil {
		return done(NewErrorResult(1, fmt.Errorf("failed to parse step: %w", err)))
	}

	envBuilder := r.Env
	if envBuilder == nil {
		envBuilder = NewDefaultEnvBuilder()
	}
	env, err := envBuilder.Build(ctx)
	if err != nil {
		return done(NewErrorResult(1, fmt.Errorf("failed to build environment: %w", err)))
	}

	opts := []interp.RunnerOption{
		interp.Dir(resolveWorkDir(ctx)),
		interp.Env(expand.ListEnviron(EnvToSlice(env)...)),
		interp.StdIO(stdin, stdout, stderr),
	}

	// Prepend "--" so positional args that look like options ("-v",
	// "--env=x") are not interpreted as shell options by interp.Params.
	if len(ctx.PositionalArgs) > 0 {
		params := append([]string{"--"}, ctx.PositionalArgs...)
		opts = append(opts, interp.Params(params...))
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return done(NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err)))
	}

	execCtx := ctx.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	if err := sh.Run(execCtx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return done(NewExitCodeResult(ExitCode(exitStatus)))
		}
		return done(NewErrorResult(1, fmt.Errorf("step execution failed: %w", err)))
	}

	return done(NewSuccessResult())
}
