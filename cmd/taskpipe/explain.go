// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"taskpipe/internal/issue"
)

// newExplainCommand creates the `taskpipe explain` command, which renders the
// documentation page for a known failure condition.
func newExplainCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explain [issue]",
		Short: "Explain a known failure condition",
		Long: `Explain a known failure condition in detail.

Error reports reference issues by name, e.g. 'step-failed'. Run explain
with that name to get the full description and suggested fixes, or with
no arguments to list every known issue.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println(TitleStyle.Render("Known Issues"))
				fmt.Println()
				for _, slug := range issue.Slugs() {
					fmt.Printf("  %s\n", TargetStyle.Render(string(slug)))
				}
				fmt.Println()
				fmt.Println(SubtitleStyle.Render("Run 'taskpipe explain <issue>' for details."))
				return nil
			}

			found := issue.GetBySlug(issue.Slug(args[0]))
			if found == nil {
				return fmt.Errorf("unknown issue %q (run 'taskpipe explain' for the list)", args[0])
			}

			rendered, err := found.Render(issueStyle())
			if err != nil {
				return err
			}
			fmt.Print(rendered)
			return nil
		},
		ValidArgsFunction: completeIssueSlugs,
	}
}

// completeIssueSlugs provides shell completion for issue names.
func completeIssueSlugs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var completions []string
	for _, slug := range issue.Slugs() {
		if strings.HasPrefix(string(slug), toComplete) {
			completions = append(completions, string(slug))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}
