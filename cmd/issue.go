package cmd

import (
	"log"

	"github.com/findy-network/findy-conversation-agent/cmds/connection"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Parent command for the credential issuing conversation",
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var proofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Parent command for the proof presentation conversation",
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var exchangeFlags = struct {
	ClientFlags
	connID    string
	convID    string
	credDefID string
	attrs     string
}{}

var offerCmd = &cobra.Command{
	Use:   "offer",
	Short: "Offers the credential to the connection",
	Long: `
Example
	findy-conversation-agent issue offer \
		--wallet-name faber \
		--id 8a9c... \
		--cred-def-id cred-def-1 \
		--attrs '{"name":"Joe Smith","degree":"B.A.Sc. Honours"}'
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "ISSUE")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.IssueCmd{
			Cmd:        connection.Cmd{Cmd: walletBaseOf(exchangeFlags.ClientFlags), Name: exchangeFlags.connID},
			CredDefID:  exchangeFlags.credDefID,
			Attributes: exchangeFlags.attrs,
		})
	},
}

var requestCredCmd = &cobra.Command{
	Use:   "request",
	Short: "Requests the offered credential",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "ISSUE")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.RequestCmd{
			Cmd:            walletBaseOf(exchangeFlags.ClientFlags),
			ConversationID: exchangeFlags.convID,
		})
	},
}

var requestProofCmd = &cobra.Command{
	Use:   "request",
	Short: "Requests the proof from the connection",
	Long: `
Example
	findy-conversation-agent proof request \
		--wallet-name acme \
		--id 8a9c... \
		--cred-def-id cred-def-1 \
		--attrs '["name","degree"]'
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "PROOF")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.ReqProofCmd{
			Cmd:        connection.Cmd{Cmd: walletBaseOf(exchangeFlags.ClientFlags), Name: exchangeFlags.connID},
			CredDefID:  exchangeFlags.credDefID,
			Attributes: exchangeFlags.attrs,
		})
	},
}

var sendProofCmd = &cobra.Command{
	Use:   "send",
	Short: "Presents the requested proof",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(connEnvs, "PROOF")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, connection.ProofCmd{
			Cmd:            walletBaseOf(exchangeFlags.ClientFlags),
			ConversationID: exchangeFlags.convID,
		})
	},
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	rootCmd.AddCommand(issueCmd, proofCmd)
	issueCmd.AddCommand(offerCmd, requestCredCmd)
	proofCmd.AddCommand(requestProofCmd, sendProofCmd)

	for _, c := range []*cobra.Command{offerCmd, requestCredCmd, requestProofCmd, sendProofCmd} {
		addWalletFlags(c, &exchangeFlags.ClientFlags, false, connEnvs, c.Parent().Name())
	}
	for _, c := range []*cobra.Command{offerCmd, requestProofCmd} {
		f := c.Flags()
		f.StringVar(&exchangeFlags.connID, "id", "", "connection id")
		f.StringVar(&exchangeFlags.credDefID, "cred-def-id", "", "credential definition id")
		f.StringVar(&exchangeFlags.attrs, "attrs", "", "attributes as JSON")
	}
	requestCredCmd.Flags().StringVar(&exchangeFlags.convID, "conversation", "", "conversation id")
	sendProofCmd.Flags().StringVar(&exchangeFlags.convID, "conversation", "", "conversation id")
}
