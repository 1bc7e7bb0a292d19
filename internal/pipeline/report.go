// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"fmt"
	"time"

	"taskpipe/internal/runner"
)

// UndefinedDest is the label used for failure attribution when a step has no
// destination label.
const UndefinedDest = "undefined"

type (
	// Report is the outcome of one pipeline run.
	Report struct {
		// Pipeline is the name of the pipeline that ran.
		Pipeline string
		// Success is true when every step completed with exit code 0.
		Success bool
		// StepsRun counts steps that were started, including a failing one.
		StepsRun int
		// StepsTotal is the number of steps in the pipeline.
		StepsTotal int
		// Failure describes the failing step. Nil on success.
		Failure *StepFailure
		// Duration is the wall-clock time of the run.
		Duration time.Duration
		// Stdout holds the failing step's captured standard output, when
		// output was captured. Empty on success.
		Stdout string
		// Stderr holds the failing step's captured standard error, when
		// output was captured. Empty on success.
		Stderr string
	}

	// StepFailure identifies the step that stopped a pipeline.
	StepFailure struct {
		// Index is the 1-based position of the failing step.
		Index int
		// Dest is the step's destination label, or UndefinedDest when the
		// step declared none.
		Dest string
		// Run is the shell command that failed.
		Run string
		// ExitCode is the step's exit code, 0 when the failure was an
		// infrastructure error rather than a non-zero exit.
		ExitCode runner.ExitCode
		// Err is the underlying error, if any.
		Err error
	}
)

// Error implements the error interface with the dest-attributed message.
func (f *StepFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("step %d (%s) failed: %v", f.Index, f.Dest, f.Err)
	}
	return fmt.Sprintf("step %d (%s) failed with exit code %d", f.Index, f.Dest, f.ExitCode)
}

// Unwrap exposes the underlying error for errors.Is/As chains.
func (f *StepFailure) Unwrap() error { return f.Err }

// destLabel normalizes a step's destination for failure attribution: steps
// without a dest are reported under the literal label "undefined".
func destLabel(dest string) string {
	if dest == "" {
		return UndefinedDest
	}
	return dest
}
