package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Atento/internal/scheduler"
)

// NewSchedulesCmd создаёт группу команд для файла расписаний.
func NewSchedulesCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Inspect a schedules file",
	}

	cmd.AddCommand(
		newSchedulesListCmd(outputFn),
		newSchedulesNextCmd(outputFn),
	)

	return cmd
}

func newSchedulesListCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list FILE",
		Short: "Validate a schedules file and list its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			schedules, err := scheduler.LoadSchedules(args[0])
			if err != nil {
				return err
			}

			now := time.Now()
			headers := []string{"NAME", "CRON", "TIMEZONE", "ENABLED", "NEXT", "CHAIN"}
			rows := make([][]string, len(schedules))
			for i := range schedules {
				s := &schedules[i]
				next := ""
				if runs, err := scheduler.NextRuns(s, now, 1); err == nil && len(runs) == 1 && s.Enabled {
					next = runs[0].Format(time.RFC3339)
				}
				rows[i] = []string{s.Name, s.Cron, s.Timezone, strconv.FormatBool(s.Enabled), next, s.Chain}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	}
}

func newSchedulesNextCmd(outputFn func() *Output) *cobra.Command {
	var count int
	var name string

	cmd := &cobra.Command{
		Use:   "next FILE",
		Short: "Print upcoming run times",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			schedules, err := scheduler.LoadSchedules(args[0])
			if err != nil {
				return err
			}

			type nextRun struct {
				Schedule string    `json:"schedule"`
				At       time.Time `json:"at"`
			}

			var (
				runs []nextRun
				rows [][]string
			)
			now := time.Now()
			for i := range schedules {
				s := &schedules[i]
				if !s.Enabled || (name != "" && s.Name != name) {
					continue
				}

				times, err := scheduler.NextRuns(s, now, count)
				if err != nil {
					return err
				}
				for _, at := range times {
					runs = append(runs, nextRun{Schedule: s.Name, At: at})
					rows = append(rows, []string{s.Name, at.Format(time.RFC3339)})
				}
			}

			out.Print([]string{"SCHEDULE", "AT"}, rows, runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 5, "Number of upcoming times per schedule")
	cmd.Flags().StringVar(&name, "name", "", "Only this schedule")

	return cmd
}
