package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunsCmd создаёт группу команд для архива запусков (через API).
func NewRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Browse archived chain runs",
	}

	cmd.AddCommand(
		newRunsListCmd(clientFn, outputFn),
		newRunsShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "CHAIN", "SOURCE", "STATUS", "DURATION", "ERRORS", "STARTED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.ChainName, r.Source, r.Status,
					fmt.Sprintf("%dms", r.DurationMs), strconv.Itoa(r.ErrorCount), r.StartedAt,
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Chain, "chain", "", "Filter by chain name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (ok, nok)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func newRunsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show an archived run with its full result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			if out.JSONMode() {
				out.JSON(run)
				return nil
			}

			out.Table(
				[]string{"ID", "CHAIN", "SOURCE", "STATUS", "DURATION", "ERRORS", "STARTED", "FINISHED"},
				[][]string{{
					run.ID, run.ChainName, run.Source, run.Status,
					fmt.Sprintf("%dms", run.DurationMs), strconv.Itoa(run.ErrorCount),
					run.StartedAt, run.FinishedAt,
				}},
			)

			if len(run.Result) > 0 {
				out.Line("")
				var pretty any
				if err := json.Unmarshal(run.Result, &pretty); err != nil {
					return fmt.Errorf("decode run result: %w", err)
				}
				out.JSON(pretty)
			}
			return nil
		},
	}
}
