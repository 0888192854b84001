package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/simorq_scheduler/cmd/http"
	slotscmd "github.com/Alijeyrad/simorq_scheduler/cmd/slots"
	systemcmd "github.com/Alijeyrad/simorq_scheduler/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "simorq-scheduler",
	Short: "Weekly recurring time slots with per-date overrides.",
	Long: `Simorq Scheduler keeps a user's standing weekly time slots and the
one-off changes made to single dates: a moved session, a cancelled day.
It serves the resolved weeks over HTTP and as an iCalendar feed.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
	rootCmd.AddCommand(slotscmd.NewSlotsCommand())
}
