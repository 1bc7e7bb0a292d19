// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taskpipe/internal/config"
	"taskpipe/internal/discovery"
	"taskpipe/internal/issue"
)

// listCmd displays every runnable target with its origin
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all available pipelines and groups",
	Long: `List every pipeline and group discovered from pipefiles, grouped by
where the defining file was found. Targets in the working directory
shadow search paths, which shadow the user pipelines directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listTargets()
	},
}

// listTargets displays all discovered targets grouped by source.
func listTargets() error {
	cfg := config.Get()
	disc := discovery.New(cfg)

	result, err := disc.DiscoverTargetSet()
	if err != nil {
		printIssue(issue.PipefileNotFoundId)
		return err
	}

	// Surface parse skips and resolution problems before the listing.
	renderDiagnostics(result.Diagnostics, os.Stderr)

	if len(result.Targets) == 0 {
		printIssue(issue.PipefileNotFoundId)
		return fmt.Errorf("no targets found")
	}

	// Group targets by source
	bySource := make(map[discovery.Source][]*discovery.Target)
	for _, target := range result.Targets {
		bySource[target.Source] = append(bySource[target.Source], target)
	}

	fmt.Println(TitleStyle.Render("Available Targets"))
	fmt.Println(VerboseStyle.Render("  (group) runs several pipelines in order"))
	fmt.Println()

	sources := []discovery.Source{discovery.SourceCurrentDir, discovery.SourceSearchPath, discovery.SourceUserDir}
	for _, source := range sources {
		targets := bySource[source]
		if len(targets) == 0 {
			continue
		}

		fmt.Println(SubtitleStyle.Render(fmt.Sprintf("From %s:", source.String())))

		for _, target := range targets {
			line := fmt.Sprintf("  %s", TargetStyle.Render(target.Name))
			if target.Kind == discovery.TargetGroup {
				line += " " + WarningStyle.Render("(group)")
			}
			if target.Description != "" {
				line += fmt.Sprintf(" - %s", VerboseStyle.Render(target.Description))
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	return nil
}
