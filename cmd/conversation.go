package cmd

import (
	"log"

	"github.com/findy-network/findy-conversation-agent/cmds/conversation"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var conversationCmd = &cobra.Command{
	Use:   "conversation",
	Short: "Parent command for the protocol conversations",
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var convEnvs = map[string]string{
	"wallet-name": "WALLET_NAME",
	"id":          "ID",
}

var convFlags = struct {
	ClientFlags
	id       string
	connID   string
	status   string
	reason   string
	retained bool
}{}

func convBase() conversation.Cmd {
	return conversation.Cmd{Cmd: walletBaseOf(convFlags.ClientFlags), ID: convFlags.id}
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Polls the conversation forward",
	Long: `
Handles the new messages of the conversation's connection once. With --until
polls until the conversation has the status or the poll attempts run out.

Example
	findy-conversation-agent conversation advance \
		--wallet-name faber \
		--id 3b1f... \
		--until Accepted
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(convEnvs, "CONVERSATION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, conversation.AdvanceCmd{Cmd: convBase(), Status: convFlags.status})
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject",
	Short: "Rejects the conversation",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(convEnvs, "CONVERSATION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, conversation.RejectCmd{Cmd: convBase(), Reason: convFlags.reason})
	},
}

var listConvCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the conversations of the wallet",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(convEnvs, "CONVERSATION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, conversation.ListCmd{
			Cmd:          walletBaseOf(convFlags.ClientFlags),
			ConnectionID: convFlags.connID,
			Retained:     convFlags.retained,
		})
	},
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	for _, c := range []*cobra.Command{advanceCmd, rejectCmd, listConvCmd} {
		addWalletFlags(c, &convFlags.ClientFlags, false, convEnvs, conversationCmd.Name())
	}
	for _, c := range []*cobra.Command{advanceCmd, rejectCmd} {
		c.Flags().StringVar(&convFlags.id, "id", "", flagInfo("conversation id", conversationCmd.Name(), convEnvs["id"]))
	}
	advanceCmd.Flags().StringVar(&convFlags.status, "until", "", "status to wait for: Accepted, Rejected or Failed")
	rejectCmd.Flags().StringVar(&convFlags.reason, "reason", "rejected", "reason told to the other end")
	listConvCmd.Flags().StringVar(&convFlags.connID, "connection", "", "list only the connection's conversations")
	listConvCmd.Flags().BoolVar(&convFlags.retained, "retained", false, "list the retained unknown messages instead")

	rootCmd.AddCommand(conversationCmd)
	conversationCmd.AddCommand(advanceCmd, rejectCmd, listConvCmd)
}
