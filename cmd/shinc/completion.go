// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `shinc completion` command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts for shinc",
		Long: `Generate shell completion scripts for shinc itself.
Use 'shinc completions' for the bins of a project.

` + SubtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(shinc completion bash)"

` + SubtitleStyle.Render("Zsh:") + `
  shinc completion zsh > "${fpath[1]}/_shinc"

` + SubtitleStyle.Render("Fish:") + `
  shinc completion fish > ~/.config/fish/completions/shinc.fish

` + SubtitleStyle.Render("PowerShell:") + `
  shinc completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
