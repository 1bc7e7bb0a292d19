// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runner

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
)

// startPty starts a command with a pseudo-terminal.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}

// RunInteractive starts a prepared command on a PTY and bridges it to the
// given streams, so the step sees a real terminal. Blocks until the step
// exits.
func RunInteractive(pc *PreparedCommand, stdin io.Reader, stdout io.Writer) *Result {
	if pc.Cleanup != nil {
		defer pc.Cleanup()
	}

	f, err := startPty(pc.Cmd)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to start pty: %w", err))
	}
	defer f.Close()

	// Track terminal resizes while the step runs
	if in, ok := stdin.(*os.File); ok {
		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		defer signal.Stop(winch)
		go func() {
			for range winch {
				_ = pty.InheritSize(in, f)
			}
		}()
		winch <- syscall.SIGWINCH // initial size
	}

	go func() {
		_, _ = io.Copy(f, stdin)
	}()

	// Read side returns EIO once the child exits; that is the normal
	// end-of-session signal on Linux PTYs.
	_, _ = io.Copy(stdout, f)

	return extractExitCode(pc.Cmd.Wait())
}
