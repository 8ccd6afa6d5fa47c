package cmd

import (
	"log"

	"github.com/findy-network/findy-conversation-agent/cmds/connection"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var connectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Parent command for pairwise connections",
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var connEnvs = map[string]string{
	"wallet-name": "WALLET_NAME",
	"id":          "ID",
}

var connFlags = struct {
	ClientFlags
	id           string
	counterParty string
	invitation   string
	wait         bool
}{}

func connBase() connection.Cmd {
	return connection.Cmd{Cmd: walletBaseOf(connFlags.ClientFlags), Name: connFlags.id}
}

var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Creates the invitation",
	Long: `
Creates the invitation and prints its JSON, which is given to the invitee.

Example
	findy-conversation-agent connection invite \
		--wallet-name faber \
		--counterparty alice
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.InvitationCmd{
			Cmd:          walletBaseOf(connFlags.ClientFlags),
			CounterParty: connFlags.counterParty,
		})
	},
}

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Accepts the invitation",
	Long: `
Accepts the invitation and sends the confirmation to the inviter. The
invitation is the JSON or a file which has it.
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.ConnectCmd{
			Cmd:          walletBaseOf(connFlags.ClientFlags),
			CounterParty: connFlags.counterParty,
			Invitation:   connFlags.invitation,
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Refreshes and prints the connection",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.StatusCmd{Cmd: connBase(), Wait: connFlags.wait})
	},
}

var listConnCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the connections of the wallet",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.ListCmd{Cmd: walletBaseOf(connFlags.ClientFlags)})
	},
}

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Handles the new inbound messages of the connection",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "CONNECTION")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.InboxCmd{Cmd: connBase()})
	},
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	for _, c := range []*cobra.Command{inviteCmd, acceptCmd, statusCmd, listConnCmd, inboxCmd} {
		addWalletFlags(c, &connFlags.ClientFlags, false, connEnvs, connectionCmd.Name())
	}
	for _, c := range []*cobra.Command{statusCmd, inboxCmd} {
		c.Flags().StringVar(&connFlags.id, "id", "", flagInfo("connection id", connectionCmd.Name(), connEnvs["id"]))
	}
	inviteCmd.Flags().StringVar(&connFlags.counterParty, "counterparty", "", "name of the other end")
	acceptCmd.Flags().StringVar(&connFlags.counterParty, "counterparty", "", "name of the other end")
	acceptCmd.Flags().StringVar(&connFlags.invitation, "invitation", "", "invitation JSON or file")
	statusCmd.Flags().BoolVar(&connFlags.wait, "wait", false, "poll until the connection is active")

	rootCmd.AddCommand(connectionCmd)
	connectionCmd.AddCommand(inviteCmd, acceptCmd, statusCmd, listConnCmd, inboxCmd)
}
