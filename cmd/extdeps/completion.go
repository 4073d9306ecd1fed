// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// newCompletionCommand creates the `extdeps completion` command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for extdeps. Dependency names from the
manifest are completed for 'extdeps provision'.

` + SubtitleStyle.Render("Bash:") + `
  eval "$(extdeps completion bash)"

` + SubtitleStyle.Render("Zsh:") + `
  extdeps completion zsh > "${fpath[1]}/_extdeps"

` + SubtitleStyle.Render("Fish:") + `
  extdeps completion fish > ~/.config/fish/completions/extdeps.fish

` + SubtitleStyle.Render("PowerShell:") + `
  extdeps completion powershell | Out-String | Invoke-Expression
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
