package http

import "github.com/spf13/cobra"

// NewHTTPCommand groups the commands that run the scheduling API.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the scheduling API",
		Long: `Serve the /api/v1/schedule routes, the iCalendar feed, health probes and
/metrics. The server, store, auth and telemetry are all read from the config file.`,
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
