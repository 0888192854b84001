package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_scheduler/internal/app"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
)

func NewSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete exceptions whose recurring pattern no longer exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			st, closeFn, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := scheduling.New(st, nil).SweepOrphans(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned exceptions\n", n)
			return nil
		},
	}

	return cmd
}
