// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewDefaultLevelHidesDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be suppressed at default level, got %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info line missing from output %q", out)
	}
}

func TestNewVerboseShowsDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Writer: &buf, Verbose: true})

	logger.Debug("detail")

	if !strings.Contains(buf.String(), "detail") {
		t.Errorf("debug line missing in verbose mode, got %q", buf.String())
	}
}

func TestNewPrefix(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(Options{Writer: &buf})

	logger.Info("hello")

	if !strings.Contains(buf.String(), "taskpipe") {
		t.Errorf("default prefix missing, got %q", buf.String())
	}

	buf.Reset()
	logger = New(Options{Writer: &buf, Prefix: "watch"})
	logger.Info("hello")

	if !strings.Contains(buf.String(), "watch") {
		t.Errorf("custom prefix missing, got %q", buf.String())
	}
}
