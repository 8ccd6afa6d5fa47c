package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generates the shell completion script",
	Long: `Writes the completion script of the shell to stdout, e.g.

	source <(findy-conversation-agent completion bash)

Add the line to .bashrc or .zshrc to load the completions in every session.`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(c *cobra.Command, args []string) error {
		w := c.OutOrStdout()
		switch args[0] {
		case "zsh":
			return rootCmd.GenZshCompletion(w)
		case "fish":
			return rootCmd.GenFishCompletion(w, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(w)
		default:
			return rootCmd.GenBashCompletionV2(w, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
