// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"strconv"
)

// ExitCode is a process exit status. POSIX constrains it to 0-255; the zero
// value is success.
type ExitCode int

// ErrInvalidExitCode matches any InvalidExitCodeError via errors.Is.
var ErrInvalidExitCode = errors.New("invalid exit code")

// InvalidExitCodeError reports a code outside the 0-255 range, carrying the
// offending value.
type InvalidExitCodeError struct {
	Value ExitCode
}

func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate rejects codes a POSIX process cannot actually report.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// String returns the code in decimal.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
