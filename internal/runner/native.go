// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"taskpipe/pkg/platform"
)

// NativeRunner executes steps using the system's default shell.
type NativeRunner struct {
	// Shell overrides the default shell.
	Shell string
	// ShellArgs are arguments passed to the shell before the step command.
	ShellArgs []string
	// Env builds the step environment. Defaults to DefaultEnvBuilder.
	Env EnvBuilder
}

// NewNativeRunner creates a new native runner.
func NewNativeRunner() *NativeRunner {
	return &NativeRunner{Env: NewDefaultEnvBuilder()}
}

// Name returns the runner name.
func (r *NativeRunner) Name() string {
	return "native"
}

// Available returns whether a usable shell exists on this system.
func (r *NativeRunner) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Validate checks if a step can be executed.
func (r *NativeRunner) Validate(ctx *ExecContext) error {
	if ctx.Step == nil {
		return fmt.Errorf("no step selected for execution")
	}
	if strings.TrimSpace(ctx.Step.Run) == "" {
		return fmt.Errorf("step has no command to execute")
	}
	return nil
}

// Execute runs a step using the system shell, streaming output to the
// context's writers.
func (r *NativeRunner) Execute(ctx *ExecContext) *Result {
	cmd, err := r.buildCommand(ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}

	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr
	cmd.Stdin = ctx.Stdin

	return extractExitCode(cmd.Run())
}

// ExecuteCapture runs a step and captures its output.
func (r *NativeRunner) ExecuteCapture(ctx *ExecContext) *Result {
	cmd, err := r.buildCommand(ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	result := extractExitCode(cmd.Run())
	result.Output = stdout.String()
	result.ErrOutput = stderr.String()
	return result
}

// SupportsInteractive returns true; the native runner can always hand its
// command to a PTY.
func (r *NativeRunner) SupportsInteractive() bool {
	return true
}

// PrepareInteractive returns the step command unstarted so the caller can
// attach it to a PTY.
func (r *NativeRunner) PrepareInteractive(ctx *ExecContext) (*PreparedCommand, error) {
	if err := r.Validate(ctx); err != nil {
		return nil, err
	}
	cmd, err := r.buildCommand(ctx)
	if err != nil {
		return nil, err
	}
	return &PreparedCommand{Cmd: cmd}, nil
}

// buildCommand assembles the exec.Cmd for a step: shell, arguments,
// positional parameters, working directory, and environment.
func (r *NativeRunner) buildCommand(ctx *ExecContext) (*exec.Cmd, error) {
	shell, err := r.getShell()
	if err != nil {
		return nil, err
	}

	args := r.getShellArgs(shell)
	args = append(args, ctx.Step.Run)
	args = r.appendPositionalArgs(shell, args, ctx.PositionalArgs)

	cmd := exec.CommandContext(ctx.Context, shell, args...)

	if workDir := resolveWorkDir(ctx); workDir != "" {
		cmd.Dir = workDir
	}

	envBuilder := r.Env
	if envBuilder == nil {
		envBuilder = NewDefaultEnvBuilder()
	}
	env, err := envBuilder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build environment: %w", err)
	}
	cmd.Env = EnvToSlice(env)

	return cmd, nil
}

// getShell determines which shell to use.
func (r *NativeRunner) getShell() (string, error) {
	// Use configured shell if set
	if r.Shell != "" {
		return r.Shell, nil
	}

	// Platform-specific defaults
	switch runtime.GOOS {
	case platform.Windows:
		// Try PowerShell first, then cmd
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		return exec.LookPath("cmd")
	default:
		// Unix-like: use SHELL env var, or fall back to common shells
		if shell := os.Getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
		return "", fmt.Errorf("no shell found")
	}
}

// getShellArgs returns the arguments to pass to the shell.
func (r *NativeRunner) getShellArgs(shell string) []string {
	if len(r.ShellArgs) > 0 {
		return r.ShellArgs
	}

	base := filepath.Base(shell)
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		// Assume POSIX shell
		return []string{"-c"}
	}
}

// appendPositionalArgs appends positional arguments after the step command.
// For POSIX shells (bash, sh, zsh): args become $1, $2, ... (with "taskpipe" as $0)
// For PowerShell: args become $args[0], $args[1], ...
// For cmd.exe: no change (doesn't support inline positional args)
func (r *NativeRunner) appendPositionalArgs(shell string, args []string, positionalArgs []string) []string {
	if len(positionalArgs) == 0 {
		return args
	}

	// Extract base name, handling both Unix and Windows path separators
	base := filepath.Base(shell)
	if lastSlash := strings.LastIndex(base, "\\"); lastSlash >= 0 {
		base = base[lastSlash+1:]
	}
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "cmd":
		// cmd.exe doesn't support passing args after /C "script"
		return args
	case "powershell", "pwsh":
		// PowerShell: args after -Command are available via $args array
		return append(args, positionalArgs...)
	default:
		// POSIX shells: sh -c 'script' $0 $1 $2 ...
		args = append(args, "taskpipe") // $0 placeholder
		return append(args, positionalArgs...)
	}
}

// resolveWorkDir determines the step working directory.
// Precedence: context override > pipeline workdir > pipefile directory.
func resolveWorkDir(ctx *ExecContext) string {
	baseDir := "."
	if ctx.Pipefile != nil {
		baseDir = ctx.Pipefile.Dir()
	}
	if ctx.WorkDir != "" {
		return ctx.WorkDir
	}
	if ctx.Pipeline != nil && ctx.Pipeline.WorkDir != "" {
		if filepath.IsAbs(ctx.Pipeline.WorkDir) {
			return ctx.Pipeline.WorkDir
		}
		// Relative workdirs resolve against the pipefile location
		return filepath.Join(baseDir, ctx.Pipeline.WorkDir)
	}
	return baseDir
}

// extractExitCode determines the exit code from a command execution error.
func extractExitCode(err error) *Result {
	if err == nil {
		return NewSuccessResult()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Command executed but returned non-zero exit code
		code := ExitCode(exitErr.ExitCode())
		if validateErr := code.Validate(); validateErr != nil {
			return NewErrorResult(1, validateErr)
		}
		return NewExitCodeResult(code)
	}

	// Some other error (e.g., command not found, permission denied)
	return NewErrorResult(1, fmt.Errorf("failed to execute step: %w", err))
}
