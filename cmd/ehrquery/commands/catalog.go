package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/ehrquery/internal/ui"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/datasets"
)

func newSchemasCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the schemas of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				schemas, err := q.ListSchemas()
				if err != nil {
					return err
				}
				rows := make([][]string, len(schemas))
				for i, s := range schemas {
					rows[i] = []string{s}
				}
				return ui.PrintTable(cmd.OutOrStdout(), []string{"schema"}, rows)
			})
		},
	}
}

func newTablesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [schema]",
		Short: "List tables, optionally of one schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema string
			if len(args) == 1 {
				schema = args[0]
			}
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				tables, err := q.ListTables(schema)
				if err != nil {
					return err
				}
				if len(tables) == 0 {
					ui.PrintWarning(cmd.OutOrStdout(), "no tables found")
					return nil
				}
				rows := make([][]string, len(tables))
				for i, t := range tables {
					rows[i] = []string{t}
				}
				return ui.PrintTable(cmd.OutOrStdout(), []string{"table"}, rows)
			})
		},
	}
}

func newColumnsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <schema> <table>",
		Short: "List the columns of a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				headers, rows, err := columnRows(q, args[0], args[1])
				if err != nil {
					return err
				}
				return ui.PrintTable(cmd.OutOrStdout(), headers, rows)
			})
		},
	}
}

func newDescribeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <schema> <table>",
		Short: "Describe a table as rendered markdown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				headers, rows, err := columnRows(q, args[0], args[1])
				if err != nil {
					return err
				}
				return ui.PrintMarkdown(cmd.OutOrStdout(), ui.MarkdownTable(args[0]+"."+args[1], headers, rows))
			})
		},
	}
}

func columnRows(q *client.Querier, schema, table string) ([]string, [][]string, error) {
	t, err := q.Database().Table(schema, table)
	if err != nil {
		return nil, nil, err
	}
	rows := make([][]string, len(t.Columns))
	for i, c := range t.Columns {
		rows[i] = []string{strconv.Itoa(c.Position), c.Name, c.Type, strconv.FormatBool(c.Nullable)}
	}
	return []string{"#", "column", "type", "nullable"}, rows, nil
}

func newDatasetsCommand(a *app) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "datasets [name]",
		Short: "List known datasets, or the custom tables of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				ui.PrintList(out, datasets.Names())
				return nil
			}
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				if err := datasets.Attach(args[0], q, schema); err != nil {
					return err
				}
				ui.PrintList(out, q.ListCustomTables())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "schema holding the dataset, replacing its default schemas")
	return cmd
}
