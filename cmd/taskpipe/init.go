// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"taskpipe/pkg/pipefile"
)

var (
	initForce    bool
	initTemplate string

	// initCmd creates a new pipefile
	initCmd = &cobra.Command{
		Use:   "init [filename]",
		Short: "Create a new pipefile in the current directory",
		Long: `Create a new pipefile in the current directory with example pipelines.

This command generates a starter pipefile with sample pipelines to help
you get started quickly.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing pipefile")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "template to use (default, minimal, full)")
}

func runInit(cmd *cobra.Command, args []string) error {
	filename := "pipefile.cue"
	if len(args) > 0 {
		filename = args[0]
	}

	// Check if file exists
	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	// Generate content based on template
	content := generatePipefile(initTemplate)

	// Write file
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the pipefile to add your build steps")
	fmt.Println("  2. Run 'taskpipe list' to see available targets")
	fmt.Println("  3. Run 'taskpipe run <target>' to execute a pipeline")

	return nil
}

func generatePipefile(template string) string {
	var pf *pipefile.Pipefile

	switch template {
	case "minimal":
		pf = &pipefile.Pipefile{
			Version: "1",
			Pipelines: []pipefile.Pipeline{
				{
					Name:        "hello",
					Description: "Print a greeting",
					Steps: []pipefile.Step{
						{Run: "echo 'Hello from taskpipe!'", Dest: "greeting"},
					},
				},
			},
		}

	case "full":
		pf = &pipefile.Pipefile{
			Version:     "1",
			Description: "Project build pipelines",
			Env: map[string]string{
				"PROJECT_NAME": "myproject",
			},
			Pipelines: []pipefile.Pipeline{
				{
					Name:        "build",
					Description: "Compile the project",
					Env:         map[string]string{"CGO_ENABLED": "0"},
					Steps: []pipefile.Step{
						{Run: "go generate ./...", Dest: "generated sources"},
						{Run: "go build -o bin/app ./...", Dest: "bin/app", Artifact: "bin/app"},
					},
					Watch: []string{"**/*.go"},
				},
				{
					Name:        "test",
					Description: "Run the test suite",
					Steps: []pipefile.Step{
						{Run: "go test ./...", Dest: "tests"},
					},
				},
				{
					Name:        "dist",
					Description: "Package a release archive",
					Runner:      pipefile.RunnerVirtual,
					Steps: []pipefile.Step{
						{Run: "mkdir -p dist", Dest: "dist"},
						{Run: "tar -czf dist/app.tar.gz -C bin app", Dest: "dist/app.tar.gz", Artifact: "dist/app.tar.gz"},
					},
				},
			},
			Groups: []pipefile.Group{
				{Name: pipefile.DefaultGroupName, Pipelines: []string{"build", "test"}, Clean: true},
				{Name: "release", Pipelines: []string{"build", "test", "dist"}, Clean: true},
			},
			Clean: []string{"temp/**", "bin/**", "dist/**"},
			Stats: pipefile.StatsDefaults{Enabled: true},
		}

	default: // "default"
		pf = pipefile.DefaultPipefile()
	}

	return pipefile.GenerateCUE(pf)
}
