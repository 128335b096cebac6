package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/extract"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/pipeline"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		lookups string
		records int
	)

	cmd := &cobra.Command{
		Use:   "inspect <workbook.xlsx>",
		Short: "Show the category tables a workbook would produce without loading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := resolveLookups(a, lookups)
			if err != nil {
				return withCode(exitUsage, err)
			}

			svc := pipeline.NewService(nil, nil, l, pipeline.OptionsFromConfig(a.cfg.Pipeline))
			in, err := svc.Inspect(cmd.Context(), extract.FileSource{Path: args[0]})
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "FAILED: %s\n%s\n", in.Failure.String(), in.Failure.Action)
				return withCode(codeForFailure(in.Failure), err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s: %d rows from %d sheet(s)\n\n", in.File, in.RowsRead, len(in.Sheets))
			for _, s := range in.Skipped {
				fmt.Fprintf(w, "skipped sheet %q: %s\n", s.Name, s.Reason)
			}

			for _, table := range in.Tables.All() {
				fmt.Fprintf(w, "\n%s (%d)\n", table.Category, table.Len())
				for _, e := range table.Entries() {
					if table.Category == core.CategorySkillLevel {
						fmt.Fprintf(w, "  %d\t%s\t%s\n", e.ID, e.Key.Value, e.Key.Description)
					} else {
						fmt.Fprintf(w, "  %d\t%s\n", e.ID, e.Key.Value)
					}
				}
			}

			if records > 0 {
				fmt.Fprintf(w, "\nrecords\n")
				for i, r := range in.CleanRecords {
					if i == records {
						break
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
						r.ID, r.Source, r.Track, r.Aim, r.SkillLevel, core.FormatTime(r.RegistrationTime))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&lookups, "lookups", "", "YAML file overriding the lookup tables")
	cmd.Flags().IntVar(&records, "records", 0, "Also print the first N clean records")
	return cmd
}
