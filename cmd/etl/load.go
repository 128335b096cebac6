package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/database"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/extract"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/pipeline"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/store"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/transform"
)

type loadOptions struct {
	dryRun  bool
	lookups string
	migrate bool
	asJSON  bool
}

func newLoadCmd(a *app) *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:   "load <workbook.xlsx>",
		Short: "Merge, clean and load a survey workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("migrate") {
				opts.migrate = a.cfg.Pipeline.MigrateOnStart
			}
			return runLoad(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Load into an in-memory store instead of the database")
	cmd.Flags().StringVar(&opts.lookups, "lookups", "", "YAML file overriding the lookup tables (default: PIPELINE_LOOKUPS_FILE)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", true, "Apply pending migrations before loading (default: PIPELINE_MIGRATE_ON_START)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func runLoad(cmd *cobra.Command, a *app, path string, opts loadOptions) error {
	ctx := cmd.Context()

	lookups, err := resolveLookups(a, opts.lookups)
	if err != nil {
		return withCode(exitUsage, err)
	}
	src := extract.FileSource{Path: path}
	popts := pipeline.OptionsFromConfig(a.cfg.Pipeline)

	if opts.dryRun {
		mem := store.NewMemory()
		res, runErr := pipeline.NewService(mem, mem, lookups, popts).Run(ctx, src)
		if err := printResult(cmd.OutOrStdout(), res, mem.Counts(), opts.asJSON); err != nil {
			return err
		}
		return withCode(codeForFailure(res.Failure), runErr)
	}

	pool, err := store.Connect(ctx, a.cfg.Database)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer pool.Close()

	if opts.migrate {
		if _, err := database.Migrate(ctx, pool); err != nil {
			return withCode(exitDB, err)
		}
	}

	pg := store.NewPostgres(pool)
	res, runErr := pipeline.NewService(pg, pg, lookups, popts).Run(ctx, src)

	var counts map[string]int
	if res.OK() {
		if totals, err := pg.Counts(ctx); err == nil {
			counts = make(map[string]int, len(totals))
			for k, v := range totals {
				counts[k] = int(v)
			}
		}
	}
	if err := printResult(cmd.OutOrStdout(), res, counts, opts.asJSON); err != nil {
		return err
	}
	return withCode(codeForFailure(res.Failure), runErr)
}

// resolveLookups prefers the flag, then PIPELINE_LOOKUPS_FILE, then the
// built-in tables.
func resolveLookups(a *app, flag string) (transform.Lookups, error) {
	path := flag
	if path == "" {
		path = a.cfg.Pipeline.LookupsFile
	}
	if path == "" {
		return transform.DefaultLookups(), nil
	}
	return transform.LoadLookups(path)
}

type resultView struct {
	RunID      string         `json:"run_id"`
	File       string         `json:"file"`
	Sheets     []string       `json:"sheets"`
	Skipped    []string       `json:"skipped_sheets,omitempty"`
	RowsRead   int            `json:"rows_read"`
	Students   int            `json:"students_loaded"`
	Dimensions map[string]int `json:"dimensions,omitempty"`
	Totals     map[string]int `json:"totals,omitempty"`
	Duration   string         `json:"duration"`
	Failure    *core.Failure  `json:"failure,omitempty"`
}

func newResultView(res *pipeline.Result, totals map[string]int) resultView {
	v := resultView{
		RunID:    res.RunID.String(),
		File:     res.File,
		Sheets:   res.Sheets,
		RowsRead: res.RowsRead,
		Totals:   totals,
		Duration: res.Duration.String(),
		Failure:  res.Failure,
	}
	for _, s := range res.Skipped {
		v.Skipped = append(v.Skipped, fmt.Sprintf("%s (%s)", s.Name, s.Reason))
	}
	if res.Summary != nil {
		v.Students = res.Summary.Students
		v.Dimensions = make(map[string]int, len(res.Summary.Dimensions))
		for c, n := range res.Summary.Dimensions {
			v.Dimensions[string(c)] = n
		}
	}
	return v
}

func printResult(w io.Writer, res *pipeline.Result, totals map[string]int, asJSON bool) error {
	v := newResultView(res, totals)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	fmt.Fprintf(w, "run %s: %s\n", v.RunID, v.File)
	fmt.Fprintf(w, "  sheets merged: %s\n", strings.Join(v.Sheets, ", "))
	for _, s := range v.Skipped {
		fmt.Fprintf(w, "  sheet skipped: %s\n", s)
	}
	fmt.Fprintf(w, "  rows read:     %d\n", v.RowsRead)

	if v.Failure != nil {
		fmt.Fprintf(w, "  FAILED: %s\n", v.Failure.String())
		fmt.Fprintf(w, "  %s\n", v.Failure.Action)
		return nil
	}

	fmt.Fprintf(w, "  students:      %d\n", v.Students)
	for _, name := range sortedKeys(v.Totals) {
		fmt.Fprintf(w, "  %-16s %d rows\n", name+":", v.Totals[name])
	}
	fmt.Fprintf(w, "  duration:      %s\n", v.Duration)
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
