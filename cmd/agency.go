package cmd

import (
	"log"
	"os"

	"github.com/findy-network/findy-conversation-agent/agent/utils"
	"github.com/findy-network/findy-conversation-agent/cmds/agency"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// AgencyCmd represents the agency command
var AgencyCmd = &cobra.Command{
	Use:   "agency",
	Short: "Parent command for starting agency",
	Long: `
Parent command for starting agency
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var agencyStartEnvs = map[string]string{
	"poll-interval": "POLL_INTERVAL",
	"workers":       "WORKERS",
	"metrics-addr":  "METRICS_ADDR",
}

// startAgencyCmd represents the agency start subcommand
var startAgencyCmd = &cobra.Command{
	Use:   "start",
	Short: "Command for starting agency",
	Long: `
Starts the agency which polls the inbound messages of all the connections in
the background and serves the prometheus metrics.

Example
	findy-conversation-agent agency start \
		--db conversation.bolt \
		--mailbox mailbox.bolt \
		--poll-interval 10s \
		--metrics-addr :2112
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(agencyStartEnvs, "AGENCY")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		aCmd.PsmDB = utils.Settings.PsmDB()
		aCmd.MailboxDB = utils.Settings.MailboxDB()
		try.To(aCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(aCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var aCmd = agency.DefaultValues

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	aCmd.VersionInfo = "findy-conversation-agent v. " + utils.Version

	flags := startAgencyCmd.Flags()
	flags.DurationVar(&aCmd.PollInterval, "poll-interval", aCmd.PollInterval, flagInfo("interval of the inbound poller", AgencyCmd.Name(), agencyStartEnvs["poll-interval"]))
	flags.IntVar(&aCmd.Workers, "workers", aCmd.Workers, flagInfo("connections polled in parallel", AgencyCmd.Name(), agencyStartEnvs["workers"]))
	flags.StringVar(&aCmd.MetricsAddr, "metrics-addr", aCmd.MetricsAddr, flagInfo("listen address of the metrics, empty is off", AgencyCmd.Name(), agencyStartEnvs["metrics-addr"]))

	rootCmd.AddCommand(AgencyCmd)
	AgencyCmd.AddCommand(startAgencyCmd)
}
