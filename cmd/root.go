package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/findy-network/findy-conversation-agent/cmds"
	"github.com/findy-network/findy-conversation-agent/cmds/agency"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FCONV"

var rootCmd = &cobra.Command{
	Version: utils.Version,
	Use:     "findy-conversation-agent",
	Short:   "Findy conversation agent cli tool",
	Long: `
Findy conversation agent cli tool

Connects wallets pairwise and runs the credential issuing and the proof
presentation conversations between them.
	`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		agency.ParseLoggingArgs(rootFlags.logging)
		handleViperFlags(cmd)
		setRuntimeSettings()
	},
}

// Execute runs the CLI and exits with 1 on error. Cobra has already printed
// the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root of the command tree.
func RootCmd() *cobra.Command {
	return rootCmd
}

// RootFlags are the persistent flags of every command.
type RootFlags struct {
	cfgFile string
	dryRun  bool
	logging string

	psmDB     string
	mailboxDB string

	pollAttempts uint64
	pollDelay    time.Duration
	pollBackoff  float64
	pollMaxDelay time.Duration
	pollJitter   float64
}

// ClientFlags are the flags of the commands which run as a wallet.
type ClientFlags struct {
	WalletName string
	WalletKey  string
}

var rootFlags = RootFlags{}

var rootEnvs = map[string]string{
	"config":         "CONFIG",
	"logging":        "LOGGING",
	"dry-run":        "DRY_RUN",
	"db":             "DB",
	"mailbox":        "MAILBOX",
	"poll-attempts":  "POLL_ATTEMPTS",
	"poll-delay":     "POLL_DELAY",
	"poll-backoff":   "POLL_BACKOFF",
	"poll-max-delay": "POLL_MAX_DELAY",
	"poll-jitter":    "POLL_JITTER",
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.cfgFile, "config", "", flagInfo("configuration file", "", rootEnvs["config"]))
	flags.StringVar(&rootFlags.logging, "logging", "-logtostderr=true -v=2", flagInfo("logging startup arguments", "", rootEnvs["logging"]))
	flags.BoolVarP(&rootFlags.dryRun, "dry-run", "n", false, flagInfo("perform a trial run with no changes made", "", rootEnvs["dry-run"]))
	flags.StringVar(&rootFlags.psmDB, "db", "conversation.bolt", flagInfo("connection and conversation database file", "", rootEnvs["db"]))
	flags.StringVar(&rootFlags.mailboxDB, "mailbox", "mailbox.bolt", flagInfo("wallet mailbox database file", "", rootEnvs["mailbox"]))
	flags.Uint64Var(&rootFlags.pollAttempts, "poll-attempts", utils.DefaultPollAttempts, flagInfo("max tries of the bounded polls", "", rootEnvs["poll-attempts"]))
	flags.DurationVar(&rootFlags.pollDelay, "poll-delay", utils.DefaultPollDelay, flagInfo("delay between the poll tries", "", rootEnvs["poll-delay"]))
	flags.Float64Var(&rootFlags.pollBackoff, "poll-backoff", 0, flagInfo("multiplier of the poll delay, <= 1 is constant", "", rootEnvs["poll-backoff"]))
	flags.DurationVar(&rootFlags.pollMaxDelay, "poll-max-delay", 0, flagInfo("cap of the growing poll delay, 0 is no cap", "", rootEnvs["poll-max-delay"]))
	flags.Float64Var(&rootFlags.pollJitter, "poll-jitter", 0, flagInfo("randomization factor of the poll delay", "", rootEnvs["poll-jitter"]))

	for name := range rootEnvs {
		if name == "config" {
			continue
		}
		try.To(viper.BindPFlag(name, flags.Lookup(name)))
	}
	try.To(BindEnvs(rootEnvs, ""))
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	readConfigFile()
	readBoundRootFlags()
}

func readBoundRootFlags() {
	rootFlags.logging = viper.GetString("logging")
	rootFlags.dryRun = viper.GetBool("dry-run")
	rootFlags.psmDB = viper.GetString("db")
	rootFlags.mailboxDB = viper.GetString("mailbox")
	rootFlags.pollAttempts = viper.GetUint64("poll-attempts")
	rootFlags.pollDelay = viper.GetDuration("poll-delay")
	rootFlags.pollBackoff = viper.GetFloat64("poll-backoff")
	rootFlags.pollMaxDelay = viper.GetDuration("poll-max-delay")
	rootFlags.pollJitter = viper.GetFloat64("poll-jitter")
}

func setRuntimeSettings() {
	utils.Settings.SetPsmDB(rootFlags.psmDB)
	utils.Settings.SetMailboxDB(rootFlags.mailboxDB)
	utils.Settings.SetPollAttempts(rootFlags.pollAttempts)
	utils.Settings.SetPollDelay(rootFlags.pollDelay)
	utils.Settings.SetPollBackoff(rootFlags.pollBackoff)
	utils.Settings.SetPollMaxDelay(rootFlags.pollMaxDelay)
	utils.Settings.SetPollJitter(rootFlags.pollJitter)
}

func readConfigFile() {
	cfgEnv := os.Getenv(getEnvName("", "config"))
	if rootFlags.cfgFile != "" || cfgEnv != "" {
		printInfo := true
		if rootFlags.cfgFile == "" {
			rootFlags.cfgFile = cfgEnv
			printInfo = false
		}
		viper.SetConfigFile(rootFlags.cfgFile)
		err := viper.ReadInConfig()
		switch {
		case err != nil:
			fmt.Fprintln(os.Stderr, "cannot read config file:", err)
		case printInfo:
			fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
		}
	}
}

// BindEnvs calls viper.BindEnv with envMap and cmdName which can be empty if
// flag is general.
func BindEnvs(envMap map[string]string, cmdName string) (err error) {
	defer err2.Handle(&err)

	for flagKey, envName := range envMap {
		finalEnvName := getEnvName(cmdName, envName)
		try.To(viper.BindEnv(flagKey, finalEnvName))
	}
	return nil
}

func flagInfo(info, cmdPrefix, envName string) string {
	return info + ", " + getEnvName(cmdPrefix, envName)
}

func getEnvName(cmdName, envName string) string {
	if cmdName == "" {
		return envPrefix + "_" + strings.ToUpper(envName)
	}
	return envPrefix + "_" + strings.ToUpper(cmdName) + "_" + envName
}

func handleViperFlags(cmd *cobra.Command) {
	setRequiredStringFlags(cmd)
	if cmd.HasParent() {
		handleViperFlags(cmd.Parent())
	}
}

func setRequiredStringFlags(cmd *cobra.Command) {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	try.To(viper.BindPFlags(cmd.LocalFlags()))
	if cmd.PreRunE != nil {
		try.To(cmd.PreRunE(cmd, nil))
	}
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if viper.GetString(f.Name) != "" {
			try.To(cmd.LocalFlags().Set(f.Name, viper.GetString(f.Name)))
		}
	})
}

// SubCmdNeeded prints the help and error messages because the cmd is abstract.
func SubCmdNeeded(cmd *cobra.Command) {
	fmt.Println("Subcommand needed!")
	_ = cmd.Help()
	os.Exit(1)
}

// addWalletFlags adds the wallet flags to the command. Key is needed only by
// the commands which create or delete the wallet.
func addWalletFlags(c *cobra.Command, f *ClientFlags, withKey bool, envs map[string]string, prefix string) {
	flags := c.Flags()
	flags.StringVar(&f.WalletName, "wallet-name", "", flagInfo("wallet name", prefix, envs["wallet-name"]))
	if withKey {
		flags.StringVar(&f.WalletKey, "wallet-key", "", flagInfo("wallet key", prefix, envs["wallet-key"]))
	}
}

var walletEnvs = map[string]string{
	"wallet-name": "WALLET_NAME",
	"wallet-key":  "WALLET_KEY",
}

// run validates and executes the command and prints its result.
func run(cmd *cobra.Command, c cmds.Command) (err error) {
	defer err2.Handle(&err)

	try.To(c.Validate())
	if rootFlags.dryRun {
		return nil
	}
	cmd.SilenceUsage = true
	w := cmd.OutOrStdout()
	r := try.To1(c.Exec(w))
	return cmds.Print(w, r)
}
