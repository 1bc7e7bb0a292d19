// SPDX-License-Identifier: MPL-2.0

package pipefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validCUE = `
version: "1"
description: "demo pipelines"
default_runner: "native"

pipelines: [
	{
		name:        "build"
		description: "compile"
		steps: [
			{run: "make build", dest: "out/app", artifact: "out/app"},
			{run: "make manifest"},
		]
		env: {"CGO_ENABLED": "0"}
	},
	{
		name: "docs"
		steps: [
			{run: "make docs", dest: "out/docs.tgz", artifact: "out/docs.tgz"},
		]
	},
]

groups: [
	{name: "default", pipelines: ["build"]},
	{name: "all", pipelines: ["build", "docs"], clean: true},
]

clean: ["temp/**"]

stats: enabled: true
`

func TestParseBytesCUE(t *testing.T) {
	t.Parallel()

	pf, err := ParseBytes([]byte(validCUE), "pipefile.cue")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}

	if pf.FilePath != "pipefile.cue" {
		t.Errorf("FilePath = %q, want %q", pf.FilePath, "pipefile.cue")
	}
	if len(pf.Pipelines) != 2 {
		t.Fatalf("len(Pipelines) = %d, want 2", len(pf.Pipelines))
	}
	if pf.DefaultRunner != RunnerNative {
		t.Errorf("DefaultRunner = %q, want native", pf.DefaultRunner)
	}

	build := pf.Pipelines[0]
	if build.Name != "build" || len(build.Steps) != 2 {
		t.Fatalf("build pipeline = %+v, want name build with 2 steps", build)
	}
	if build.Steps[0].Artifact != "out/app" {
		t.Errorf("Steps[0].Artifact = %q, want out/app", build.Steps[0].Artifact)
	}
	// A step without dest is legal; the label is normalized at failure time.
	if build.Steps[1].Dest != "" {
		t.Errorf("Steps[1].Dest = %q, want empty", build.Steps[1].Dest)
	}
	if build.Env["CGO_ENABLED"] != "0" {
		t.Errorf("Env[CGO_ENABLED] = %q, want 0", build.Env["CGO_ENABLED"])
	}

	if !pf.Stats.Enabled {
		t.Error("Stats.Enabled = false, want true")
	}
	if len(pf.Groups) != 2 || !pf.Groups[1].Clean {
		t.Errorf("Groups = %+v, want 2 groups with all.clean=true", pf.Groups)
	}
}

func TestParseBytesCUEErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantSub string
	}{
		{
			name:    "no pipelines",
			data:    `version: "1"`,
			wantSub: "pipelines",
		},
		{
			name: "empty steps",
			data: `pipelines: [{name: "a", steps: []}]`,
			// Schema requires one-or-more steps.
			wantSub: "steps",
		},
		{
			name:    "step without run",
			data:    `pipelines: [{name: "a", steps: [{dest: "x"}]}]`,
			wantSub: "run",
		},
		{
			name:    "empty run rejected",
			data:    `pipelines: [{name: "a", steps: [{run: ""}]}]`,
			wantSub: "run",
		},
		{
			name:    "unknown runner",
			data:    `pipelines: [{name: "a", runner: "container", steps: [{run: "x"}]}]`,
			wantSub: "runner",
		},
		{
			name:    "duplicate pipeline names",
			data:    `pipelines: [{name: "a", steps: [{run: "x"}]}, {name: "a", steps: [{run: "y"}]}]`,
			wantSub: "already used",
		},
		{
			name: "group references unknown pipeline",
			data: `
pipelines: [{name: "a", steps: [{run: "x"}]}]
groups: [{name: "g", pipelines: ["missing"]}]
`,
			wantSub: "unknown pipeline",
		},
		{
			name: "group and pipeline share a name",
			data: `
pipelines: [{name: "a", steps: [{run: "x"}]}]
groups: [{name: "a", pipelines: ["a"]}]
`,
			wantSub: "already used",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseBytes([]byte(tt.data), "pipefile.cue")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not contain %q", err, tt.wantSub)
			}
		})
	}
}

const validTOML = `
version = "1"
description = "demo pipelines"

[[pipelines]]
name = "build"
description = "compile"

[pipelines.env]
CGO_ENABLED = "0"

[[pipelines.steps]]
run = "make build"
dest = "out/app"
artifact = "out/app"

[[groups]]
name = "default"
pipelines = ["build"]

[stats]
enabled = true
`

func TestParseBytesTOML(t *testing.T) {
	t.Parallel()

	pf, err := ParseBytes([]byte(validTOML), "pipefile.toml")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if len(pf.Pipelines) != 1 || pf.Pipelines[0].Name != "build" {
		t.Fatalf("Pipelines = %+v, want single build pipeline", pf.Pipelines)
	}
	if pf.Pipelines[0].Env["CGO_ENABLED"] != "0" {
		t.Errorf("Env[CGO_ENABLED] = %q, want 0", pf.Pipelines[0].Env["CGO_ENABLED"])
	}
	if !pf.Stats.Enabled {
		t.Error("Stats.Enabled = false, want true")
	}
}

func TestParseBytesTOMLRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	data := `
[[pipelines]]
name = "build"
bogus = true

[[pipelines.steps]]
run = "make"
`
	_, err := ParseBytes([]byte(data), "pipefile.toml")
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestParseBytesTOMLValidatesSemantics(t *testing.T) {
	t.Parallel()

	// TOML bypasses the CUE schema, so Go validation must still catch a
	// missing run command.
	data := `
[[pipelines]]
name = "build"

[[pipelines.steps]]
dest = "out/app"
`
	_, err := ParseBytes([]byte(data), "pipefile.toml")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "run command is required") {
		t.Errorf("error %q should name the missing run command", err)
	}
}

func TestParseFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pipefile.cue")
	if err := os.WriteFile(path, []byte(validCUE), 0o644); err != nil {
		t.Fatal(err)
	}

	pf, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if pf.FilePath != path {
		t.Errorf("FilePath = %q, want %q", pf.FilePath, path)
	}
	if pf.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", pf.Dir(), dir)
	}
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Parse(filepath.Join(t.TempDir(), "nope.cue"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
