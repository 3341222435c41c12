package commands

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/ehrquery/internal/server"
	"github.com/satishbabariya/ehrquery/pkg/client"
	"github.com/satishbabariya/ehrquery/pkg/datasets"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var (
		addr        string
		rowLimit    int
		dataset     string
		schema      string
		datasetFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and query results over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return a.withQuerier(cmd.Context(), func(q *client.Querier) error {
				if dataset != "" {
					if err := datasets.Attach(dataset, q, schema); err != nil {
						return err
					}
				}
				if datasetFile != "" {
					defs, err := datasets.LoadDefinitions(a.fs, datasetFile)
					if err != nil {
						return err
					}
					if err := datasets.Register(q, defs); err != nil {
						return err
					}
				}

				srv := server.New(q, server.WithLogger(a.logger), server.WithRowLimit(rowLimit))
				errc := make(chan error, 1)
				go func() { errc <- srv.Start(addr) }()

				select {
				case err := <-errc:
					return err
				case <-cmd.Context().Done():
				}

				ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return <-errc
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "", "listen address (default: server.addr from config)")
	flags.IntVar(&rowLimit, "row-limit", server.DefaultRowLimit, "row limit for requests without one (0 disables)")
	flags.StringVar(&dataset, "dataset", "", "dataset whose custom tables to serve")
	flags.StringVar(&schema, "schema", "", "schema holding the dataset, replacing its default schemas")
	flags.StringVar(&datasetFile, "dataset-file", "", "YAML file of custom table definitions to serve")
	return cmd
}
