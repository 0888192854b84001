package slots

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_scheduler/config"
	"github.com/Alijeyrad/simorq_scheduler/internal/app"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/weeks"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

func NewWeekCommand() *cobra.Command {
	var (
		userID string
		date   string
		count  int
	)

	cmd := &cobra.Command{
		Use:     "week",
		Short:   "Print resolved weeks for a user",
		Example: `  simorq-scheduler slots week --user 0190c0de-... --date 2024-01-10 --weeks 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			from := slottime.Today()
			if date != "" {
				if from, err = slottime.ParseDate(date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			if count < 1 {
				count = 1
			}

			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
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

			svc := scheduling.New(st, nil)
			pager, err := weeks.NewPager(func(ctx context.Context, start slottime.Date) (scheduling.Week, error) {
				return svc.GetWeek(ctx, owner, start)
			}, count)
			if err != nil {
				return err
			}

			if _, err := pager.StartAt(ctx, from); err != nil {
				return err
			}
			for i := 1; i < count; i++ {
				if _, err := pager.AppendNextWeek(ctx); err != nil {
					return err
				}
			}

			list, err := pager.Weeks(ctx)
			if err != nil {
				return err
			}
			for _, w := range list {
				renderWeek(cmd.OutOrStdout(), w, slottime.Today())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	cmd.Flags().StringVar(&date, "date", "", "any date inside the first week (default today)")
	cmd.Flags().IntVar(&count, "weeks", 1, "number of consecutive weeks")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// renderWeek prints one row per occurrence. Empty days get a single dash row.
func renderWeek(out io.Writer, w scheduling.Week, today slottime.Date) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Day", "Date", "Start", "End", "Modified"})
	table.SetAutoMergeCells(true)
	table.SetRowLine(true)
	table.SetCaption(true, "Week of "+w.Start.Label())

	for _, d := range w.Dates() {
		day := d.Weekday().String()
		if d.Equal(today) {
			day += " *"
		}
		occs := w.On(d)
		if len(occs) == 0 {
			table.Append([]string{day, d.String(), "-", "-", ""})
			continue
		}
		for _, o := range occs {
			modified := ""
			if o.IsModified {
				modified = "yes"
			}
			table.Append([]string{day, d.String(), o.StartTime.Display(), o.EndTime.Display(), modified})
		}
	}
	table.Render()
}
