// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"taskpipe/internal/runner"
)

// ExitError carries a step's exit status out of a RunE handler so Execute
// can terminate the process with that code instead of cobra's generic 1.
// When Err is set its message is what gets printed; a bare code prints as
// "exit status N".
type ExitError struct {
	Code runner.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
