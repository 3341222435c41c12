package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/ehrquery/internal/adapters/export"
	"github.com/satishbabariya/ehrquery/internal/core/query/filterexpr"
	"github.com/satishbabariya/ehrquery/internal/ui"
	"github.com/satishbabariya/ehrquery/internal/watch"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/datasets"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

var errSourceFlags = errors.New("exactly one of --sql, --sql-file, --table or --accessor is required")

type queryFlags struct {
	sql         string
	sqlFile     string
	table       string
	dataset     string
	schema      string
	datasetFile string
	accessor    string

	where    string
	limit    int
	maxRows  int
	castTime bool

	batchSize int64
	indexCol  string

	out    string
	format string
	watch  bool
}

func newQueryCommand(a *app) *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query and print or save the result",
		Long: `Run a query built from raw SQL, a table or a custom table, then print
the result or save it as CSV or Parquet. With --batch-size and --index-col
the result is fetched in batches that never split a value of the index
column, and each batch is saved to its own file under --out.`,
		Example: `  ehrquery query --table mimiciv_hosp.patients --where "anchor_age >= 65" --limit 20
  ehrquery query --dataset mimiciii --accessor labevents --out labs --format parquet
  ehrquery query --sql-file cohort.sql --batch-size 500000 --index-col subject_id --out cohort
  ehrquery query --sql-file cohort.sql --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				run := func(ctx context.Context) error {
					return a.runQuery(ctx, cmd.OutOrStdout(), q, &f)
				}
				if !f.watch {
					return run(cmd.Context())
				}
				w, err := watch.New(f.sqlFile, run, watch.WithLogger(a.logger))
				if err != nil {
					return err
				}
				ui.PrintInfo(cmd.ErrOrStderr(), "Watching %s, press Ctrl+C to stop", f.sqlFile)
				return w.Run(cmd.Context())
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.sql, "sql", "", "raw SELECT statement")
	flags.StringVar(&f.sqlFile, "sql-file", "", "file holding a raw SELECT statement")
	flags.StringVar(&f.table, "table", "", "table as schema.table")
	flags.StringVar(&f.dataset, "dataset", "", "dataset whose custom tables to attach: "+strings.Join(datasets.Names(), ", "))
	flags.StringVar(&f.schema, "schema", "", "schema holding the dataset, replacing its default schemas")
	flags.StringVar(&f.datasetFile, "dataset-file", "", "YAML file of custom table definitions")
	flags.StringVar(&f.accessor, "accessor", "", "custom table to query, from --dataset or --dataset-file")
	flags.StringVar(&f.where, "where", "", `filter expression, e.g. "gender = 'F' AND anchor_age > 30"`)
	flags.IntVar(&f.limit, "limit", -1, "maximum rows to fetch (default: all)")
	flags.IntVar(&f.maxRows, "max-rows", 50, "rows to print when not saving (0 prints all)")
	flags.BoolVar(&f.castTime, "cast-timestamps", false, "cast date-time columns of --table to timestamps")
	flags.Int64Var(&f.batchSize, "batch-size", 0, "rows per batch (default: batch.size from config when --index-col is set)")
	flags.StringVar(&f.indexCol, "index-col", "", "column whose values a batch never splits")
	flags.StringVar(&f.out, "out", "", "save to this path instead of printing")
	flags.StringVar(&f.format, "format", string(export.FormatParquet), "output format: csv or parquet")
	flags.BoolVar(&f.watch, "watch", false, "re-run whenever --sql-file changes")
	return cmd
}

func (f *queryFlags) validate() error {
	sources := 0
	for _, set := range []bool{f.sql != "", f.sqlFile != "", f.table != "", f.accessor != ""} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return errSourceFlags
	}
	if f.accessor != "" && f.dataset == "" && f.datasetFile == "" {
		return errors.New("--accessor needs --dataset or --dataset-file")
	}
	if f.watch && f.sqlFile == "" {
		return errors.New("--watch needs --sql-file")
	}
	if f.batchSize != 0 && f.indexCol == "" {
		return errors.New("--batch-size needs --index-col")
	}
	if f.indexCol != "" && f.limit >= 0 {
		return fmt.Errorf("--limit cannot be combined with batching: %w", client.ErrLimitNotSupported)
	}
	if _, err := export.ParseFormat(f.format); err != nil {
		return err
	}
	return nil
}

// build assembles the query interface named by the source flags.
func (a *app) build(q *client.Querier, f *queryFlags) (*client.QueryInterface, error) {
	var qi *client.QueryInterface
	switch {
	case f.sql != "":
		qi = client.NewQueryInterface(q.Database(), query.Raw(f.sql))
	case f.sqlFile != "":
		b, err := afero.ReadFile(a.fs, f.sqlFile)
		if err != nil {
			return nil, err
		}
		qi = client.NewQueryInterface(q.Database(), query.Raw(string(b)))
	case f.table != "":
		schema, table, ok := strings.Cut(f.table, ".")
		if !ok {
			return nil, fmt.Errorf("--table must be schema.table, got %q", f.table)
		}
		base, err := q.GetTable(schema, table, f.castTime)
		if err != nil {
			return nil, err
		}
		qi = client.NewQueryInterface(q.Database(), base)
	default:
		if err := a.attach(q, f); err != nil {
			return nil, err
		}
		var err error
		if qi, err = q.Custom(f.accessor); err != nil {
			return nil, err
		}
	}

	if f.where != "" {
		cond, err := filterexpr.Parse(f.where)
		if err != nil {
			return nil, err
		}
		qi = qi.Ops(query.WhereOp(cond))
	}
	return qi, qi.Err()
}

// attach registers the custom tables of --dataset and --dataset-file once
// per querier.
func (a *app) attach(q *client.Querier, f *queryFlags) error {
	if len(q.ListCustomTables()) > 0 {
		return nil
	}
	if f.dataset != "" {
		if err := datasets.Attach(f.dataset, q, f.schema); err != nil {
			return err
		}
	}
	if f.datasetFile != "" {
		defs, err := datasets.LoadDefinitions(a.fs, f.datasetFile)
		if err != nil {
			return err
		}
		if err := datasets.Register(q, defs); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runQuery(ctx context.Context, out io.Writer, q *client.Querier, f *queryFlags) error {
	qi, err := a.build(q, f)
	if err != nil {
		return err
	}
	format, _ := export.ParseFormat(f.format)

	if f.indexCol != "" {
		return a.runBatches(ctx, out, qi, f, format)
	}

	var opts []client.RunOption
	if f.limit >= 0 {
		opts = append(opts, client.Limit(f.limit))
	}

	spinner := ui.StartSpinner(out, "Running query...")
	data, err := qi.Run(ctx, opts...)
	spinner.Stop()
	if err != nil {
		return err
	}

	if f.out == "" {
		return ui.PrintFrame(out, data, f.maxRows)
	}
	path, err := qi.Save(ctx, f.out, format)
	if err != nil {
		return err
	}
	ui.PrintSuccess(out, "Saved %d rows to %s", data.Len(), path)
	return nil
}

func (a *app) runBatches(ctx context.Context, out io.Writer, qi *client.QueryInterface, f *queryFlags, format export.Format) error {
	size := f.batchSize
	if size == 0 {
		size = a.cfg.Batch.Size
	}

	spinner := ui.StartSpinner(out, "Computing batches...")
	it, err := qi.RunBatches(ctx, f.indexCol, size)
	spinner.Stop()
	if err != nil {
		return err
	}

	if f.out != "" {
		dir, err := qi.Save(ctx, f.out, format)
		if err != nil {
			return err
		}
		ui.PrintSuccess(out, "Saved %d batches to %s", it.Len(), dir)
		return nil
	}

	for data, err := range it.All(ctx) {
		if err != nil {
			return err
		}
		ui.PrintTitle(out, fmt.Sprintf("Batch %d/%d", it.Index()+1, it.Len()))
		if err := ui.PrintFrame(out, data, f.maxRows); err != nil {
			return err
		}
	}
	return nil
}
