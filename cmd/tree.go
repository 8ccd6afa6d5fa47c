package cmd

import (
	"io"

	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var treeCmd = &cobra.Command{
	Use:   "tree [command]",
	Short: "Prints the command hierarchy",
	Long: `Prints the command hierarchy of the root or of the given command,
e.g. 'tree connection'. --level limits the depth.`,
	RunE: func(c *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		from := rootCmd
		if len(args) > 0 {
			from, _ = try.To2(rootCmd.Find(args))
		}
		printTree(c.OutOrStdout(), from, "", 0, true)
		return nil
	},
}

var treeLevel int

func printTree(w io.Writer, c *cobra.Command, indent string, level int, last bool) {
	if treeLevel > 0 && level >= treeLevel {
		return
	}
	branch, next := "├── ", "│   "
	if last {
		branch, next = "└── ", "    "
	}
	cmds.Fprintln(w, indent+branch+c.Name())

	subs := c.Commands()
	for i, sub := range subs {
		printTree(w, sub, indent+next, level+1, i == len(subs)-1)
	}
}

func init() {
	treeCmd.Flags().IntVarP(&treeLevel, "level", "L", 0, "max depth of the tree, 0 prints all")
	rootCmd.AddCommand(treeCmd)
}
