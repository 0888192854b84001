package slots

import "github.com/spf13/cobra"

func NewSlotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect a user's resolved schedule",
	}

	cmd.AddCommand(NewWeekCommand())

	return cmd
}
