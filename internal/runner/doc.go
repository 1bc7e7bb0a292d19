// SPDX-License-Identifier: MPL-2.0

// Package runner provides step execution runners for taskpipe.
//
// Two runner implementations are available:
//   - native: executes steps using the host shell (bash/sh/PowerShell)
//   - virtual: executes steps using an embedded POSIX interpreter (mvdan/sh)
//
// Both implement the Runner interface with Name(), Execute(), Available(),
// and Validate(). Runners supporting output capture implement
// CapturingRunner, and those supporting PTY attachment implement
// InteractiveRunner.
//
// ExecContext carries everything a runner needs for one step: the step and
// its pipeline, I/O streams, and environment overrides. Environment building
// follows the precedence hierarchy documented on EnvBuilder in env.go, from
// the inherited host environment (lowest) to --env flag values (highest).
package runner
