// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"taskpipe/internal/config"
	"taskpipe/pkg/types"
)

// newTestDiscovery creates a Discovery instance with standard test directories.
// Default baseDir=tmpDir, pipelinesDir=tmpDir/pipelines. Extra opts override defaults.
func newTestDiscovery(t *testing.T, cfg *config.Config, tmpDir string, opts ...Option) *Discovery {
	t.Helper()
	defaults := []Option{
		WithBaseDir(types.FilesystemPath(tmpDir)),
		WithPipelinesDir(types.FilesystemPath(filepath.Join(tmpDir, "pipelines"))),
	}
	return New(cfg, append(defaults, opts...)...)
}

// writeTestPipefile writes a minimal single-pipeline pipefile.cue into dir
// and returns its path.
func writeTestPipefile(t *testing.T, dir, pipelineName string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	content := `pipelines: [{name: "` + pipelineName + `", steps: [{run: "echo ` + pipelineName + `"}]}]`
	path := filepath.Join(dir, "pipefile.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write pipefile.cue: %v", err)
	}
	return path
}

// writeTestPipefileTOML writes a minimal single-pipeline pipefile.toml into
// dir and returns its path.
func writeTestPipefileTOML(t *testing.T, dir, pipelineName string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	content := `[[pipelines]]
name = "` + pipelineName + `"

[[pipelines.steps]]
run = "echo ` + pipelineName + `"
`
	path := filepath.Join(dir, "pipefile.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write pipefile.toml: %v", err)
	}
	return path
}
