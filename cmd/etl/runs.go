package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/store"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := store.Connect(ctx, a.cfg.Database)
			if err != nil {
				return withCode(exitDB, err)
			}
			defer pool.Close()
			pg := store.NewPostgres(pool)

			if runID != "" {
				id, err := uuid.Parse(runID)
				if err != nil {
					return withCode(exitUsage, fmt.Errorf("invalid --id %q: %w", runID, err))
				}
				run, err := pg.Run(ctx, id)
				if err != nil {
					return withCode(exitDB, err)
				}
				return printRun(cmd.OutOrStdout(), run)
			}

			runs, err := pg.RecentRuns(ctx, limit)
			if err != nil {
				return withCode(exitDB, err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tSTATUS\tFILE\tROWS\tSTUDENTS\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Status, r.FileName,
					r.RowsRead, r.StudentsLoaded, r.ErrorKind)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	cmd.Flags().StringVar(&runID, "id", "", "Show a single run in detail")
	return cmd
}

func printRun(w io.Writer, r core.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "file\t%s\n", r.FileName)
	fmt.Fprintf(tw, "status\t%s\n", r.Status)
	fmt.Fprintf(tw, "started\t%s\n", r.StartedAt.Local().Format(time.DateTime))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(tw, "finished\t%s (%s)\n", r.FinishedAt.Local().Format(time.DateTime), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(tw, "rows read\t%d\n", r.RowsRead)
	fmt.Fprintf(tw, "students loaded\t%d\n", r.StudentsLoaded)
	if r.ErrorKind != "" {
		fmt.Fprintf(tw, "error\t%s: %s\n", r.ErrorKind, r.ErrorMessage)
	}
	return tw.Flush()
}
