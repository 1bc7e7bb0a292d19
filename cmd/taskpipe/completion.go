// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `taskpipe completion` command. Generated
// scripts complete subcommands and flags; pipeline targets complete too
// because they are registered as regular cobra commands.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate a shell completion script",
		Long: `Generate a completion script for taskpipe, covering subcommands, flags,
and the pipeline targets declared in the current pipefile.

` + SubtitleStyle.Render("Bash:") + ` add to ~/.bashrc, or install system-wide:
  eval "$(taskpipe completion bash)"
  taskpipe completion bash > /etc/bash_completion.d/taskpipe

` + SubtitleStyle.Render("Zsh:") + ` add to ~/.zshrc, or install into fpath:
  eval "$(taskpipe completion zsh)"
  taskpipe completion zsh > "${fpath[1]}/_taskpipe"

` + SubtitleStyle.Render("Fish:") + `
  taskpipe completion fish > ~/.config/fish/completions/taskpipe.fish

` + SubtitleStyle.Render("PowerShell:") + ` run once, or append to $PROFILE:
  taskpipe completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
