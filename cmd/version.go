package cmd

import (
	"runtime"

	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of the agent",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, _ []string) {
		cmds.Fprintf(c.OutOrStdout(), "findy-conversation-agent %s (%s %s/%s)\n",
			utils.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
