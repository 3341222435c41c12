// Package commands implements the ehrquery CLI.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/ehrquery/internal/config"
	"github.com/satishbabariya/ehrquery/internal/logging"
	"github.com/satishbabariya/ehrquery/internal/version"
	"github.com/satishbabariya/ehrquery/pkg/client"
)

// app carries what every command needs once flags are parsed.
type app struct {
	fs afero.Fs

	configFile string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the ehrquery command tree.
func NewRootCommand() *cobra.Command {
	a := &app{fs: afero.NewOsFs()}

	cmd := &cobra.Command{
		Use:   "ehrquery",
		Short: "Query EHR databases",
		Long: `ehrquery explores EHR databases such as MIMIC-III, MIMIC-IV and eICU
and extracts query results to CSV or Parquet, in batches when they are large.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: .ehrquery.yaml in ., $HOME or $HOME/.config/ehrquery)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	cmd.AddCommand(
		newInitCommand(a),
		newSchemasCommand(a),
		newTablesCommand(a),
		newColumnsCommand(a),
		newDescribeCommand(a),
		newDatasetsCommand(a),
		newQueryCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)
	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{Fs: a.fs, File: a.configFile})
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: logging.Format(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// clientConfig maps the database section to client settings.
func (a *app) clientConfig() client.Config {
	d := a.cfg.Database
	return client.Config{
		System:   d.System,
		User:     d.User,
		Password: d.Password,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Name,
		SSLMode:  d.SSLMode,
		Schemas:  d.Schemas,
	}
}

// connect opens the configured database. The caller closes it.
func (a *app) connect(ctx context.Context) (*client.Querier, error) {
	q := client.NewQuerier(ctx, a.clientConfig(),
		client.WithLogger(a.logger),
		client.WithProbeTimeout(a.cfg.ProbeTimeout),
		client.WithFs(a.fs),
	)
	if err := q.Database().Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", q.Database().URL(), err)
	}
	return q, nil
}

// withQuerier runs fn against a freshly opened database and closes it.
func (a *app) withQuerier(ctx context.Context, fn func(*client.Querier) error) error {
	q, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer q.Database().Close(context.WithoutCancel(ctx))
	return fn(q)
}
