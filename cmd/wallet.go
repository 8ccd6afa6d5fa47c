package cmd

import (
	"log"

	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/findy-network/findy-conversation-agent/cmds/wallet"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Parent command for wallet operations",
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var walletFlags ClientFlags

func walletBase() cmds.Cmd {
	return walletBaseOf(walletFlags)
}

var createWalletCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates the wallet and its identity",
	Long: `
Example
	findy-conversation-agent wallet create \
		--wallet-name alice \
		--wallet-key my-secret-key
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(walletEnvs, "WALLET")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, wallet.CreateCmd{Cmd: walletBase()})
	},
}

var cleanup bool

var deleteWalletCmd = &cobra.Command{
	Use:   "delete",
	Short: "Deletes the wallet",
	Long: `
Deletes the wallet. A wallet which still has connections or conversations
isn't deleted unless --cleanup is given.
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(walletEnvs, "WALLET")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, wallet.DeleteCmd{Cmd: walletBase(), Cleanup: cleanup})
	},
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Lists the credentials of the wallet",
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(walletEnvs, "WALLET")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		return run(cmd, wallet.CredentialsCmd{Cmd: walletBase()})
	},
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	addWalletFlags(createWalletCmd, &walletFlags, true, walletEnvs, walletCmd.Name())
	addWalletFlags(deleteWalletCmd, &walletFlags, true, walletEnvs, walletCmd.Name())
	addWalletFlags(credentialsCmd, &walletFlags, false, walletEnvs, walletCmd.Name())
	deleteWalletCmd.Flags().BoolVar(&cleanup, "cleanup", false, "remove connections and conversations first")

	rootCmd.AddCommand(walletCmd)
	walletCmd.AddCommand(createWalletCmd, deleteWalletCmd, credentialsCmd)
}

func walletBaseOf(f ClientFlags) cmds.Cmd {
	return cmds.Cmd{WalletName: f.WalletName, WalletKey: f.WalletKey}
}
