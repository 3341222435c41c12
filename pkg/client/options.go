package client

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"github.com/satishbabariya/ehrquery/internal/adapters/database"
	"github.com/satishbabariya/ehrquery/internal/adapters/telemetry"
	"github.com/satishbabariya/ehrquery/internal/logging"
)

// Config holds the connection parameters of a database.
type Config struct {
	// System is postgresql, mysql or sqlite, in any case.
	System   string
	User     string
	Password string
	Host     string
	Port     int

	// Database is the database name, or the file path for SQLite.
	Database string

	// SSLMode is passed to PostgreSQL. Default: disable.
	SSLMode string

	// Schemas restricts the exposed schemas. Empty exposes all of them.
	Schemas []string
}

func (c Config) params() database.Params {
	return database.Params{
		System:   c.System,
		User:     c.User,
		Password: c.Password,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		SSLMode:  c.SSLMode,
	}
}

type options struct {
	logger         *slog.Logger
	telemetry      telemetry.Telemetry
	fs             afero.Fs
	probeTimeout   time.Duration
	connectTimeout time.Duration
	maxConnections int
	skipProbe      bool
}

func defaultOptions() options {
	return options{
		fs:             afero.NewOsFs(),
		probeTimeout:   database.DefaultProbeTimeout,
		connectTimeout: 10 * time.Second,
		maxConnections: 4,
	}
}

// Option is a function that configures a Database.
type Option func(*options)

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTelemetry sets the telemetry adapter. Without it query timings are
// logged through the logger.
func WithTelemetry(t telemetry.Telemetry) Option {
	return func(o *options) {
		o.telemetry = t
	}
}

// WithFs sets the filesystem used for SQLite file checks and exports.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithProbeTimeout bounds the reachability probe made before connecting.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *options) {
		o.probeTimeout = d
	}
}

// WithoutProbe skips the reachability probe.
func WithoutProbe() Option {
	return func(o *options) {
		o.skipProbe = true
	}
}

// WithConnectTimeout bounds the initial connection ping.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = d
	}
}

// WithMaxConnections sets the connection pool size.
func WithMaxConnections(n int) Option {
	return func(o *options) {
		o.maxConnections = n
	}
}

func (o *options) finish() {
	o.logger = logging.OrDiscard(o.logger)
	if o.telemetry == nil {
		o.telemetry = telemetry.NewLogTelemetry(o.logger)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
}

// RunOption adjusts a single Run.
type RunOption func(*runOptions)

type runOptions struct {
	limit    int
	hasLimit bool
	index    string
}

// Limit caps the number of rows returned.
func Limit(n int) RunOption {
	return func(o *runOptions) {
		o.limit = n
		o.hasLimit = true
	}
}

// Index marks col as the index column of the returned frame.
func Index(col string) RunOption {
	return func(o *runOptions) {
		o.index = col
	}
}
