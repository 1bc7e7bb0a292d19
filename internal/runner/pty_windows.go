// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runner

import (
	"io"
)

// RunInteractive runs a prepared command with direct stdio - on Windows we
// don't use a PTY.
func RunInteractive(pc *PreparedCommand, stdin io.Reader, stdout io.Writer) *Result {
	if pc.Cleanup != nil {
		defer pc.Cleanup()
	}

	pc.Cmd.Stdin = stdin
	pc.Cmd.Stdout = stdout
	pc.Cmd.Stderr = stdout

	if err := pc.Cmd.Start(); err != nil {
		return NewErrorResult(1, err)
	}

	return extractExitCode(pc.Cmd.Wait())
}
