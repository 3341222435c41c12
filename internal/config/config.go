// Package config loads ehrquery settings from .ehrquery.yaml, EHRQUERY_*
// environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/ehrquery/internal/adapters/database"
)

const (
	// FileName is the config file name searched for, without extension.
	FileName = ".ehrquery"

	// EnvPrefix prefixes every environment variable, e.g. EHRQUERY_DATABASE_HOST.
	EnvPrefix = "EHRQUERY"
)

// Config holds the application configuration.
type Config struct {
	Database     DatabaseConfig `mapstructure:"database"`
	Log          LogConfig      `mapstructure:"log"`
	Server       ServerConfig   `mapstructure:"server"`
	Batch        BatchConfig    `mapstructure:"batch"`
	ProbeTimeout time.Duration  `mapstructure:"probe_timeout"`
}

// DatabaseConfig describes the database to connect to.
type DatabaseConfig struct {
	System   string   `mapstructure:"system"`
	User     string   `mapstructure:"user"`
	Password string   `mapstructure:"password"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Name     string   `mapstructure:"name"`
	SSLMode  string   `mapstructure:"sslmode"`
	Schemas  []string `mapstructure:"schemas"`
}

// Params converts the database section to connection parameters.
func (d DatabaseConfig) Params() database.Params {
	return database.Params{
		System:   d.System,
		User:     d.User,
		Password: d.Password,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Name,
		SSLMode:  d.SSLMode,
	}
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type BatchConfig struct {
	Size int64 `mapstructure:"size"`
}

var defaults = map[string]any{
	"database.system":   "postgresql",
	"database.user":     "",
	"database.password": "",
	"database.host":     "localhost",
	"database.port":     5432,
	"database.name":     "",
	"database.sslmode":  "",
	"database.schemas":  []string{},
	"log.level":         "info",
	"log.format":        "text",
	"server.addr":       ":8080",
	"batch.size":        1_000_000,
	"probe_timeout":     database.DefaultProbeTimeout,
}

// Options controls where Load looks.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs

	// File is an explicit config file. When empty the file is searched for
	// in Dir, Home and Home/.config/ehrquery.
	File string

	// Dir holds .env files and the first config search path. Defaults to ".".
	Dir string

	// Home defaults to the user's home directory.
	Home string
}

// Load reads the configuration. Precedence, highest first: environment
// variables, .env.local, .env, the config file, defaults.
func Load(opts Options) (*Config, error) {
	v, err := newViper(&opts)
	if err != nil {
		return nil, err
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(opts.Dir)
		v.AddConfigPath(opts.Home)
		v.AddConfigPath(filepath.Join(opts.Home, ".config", "ehrquery"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := loadDotenv(v, opts.Fs, opts.Dir); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(fs afero.Fs, cfg *Config, path string) error {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	v := viper.New()
	v.SetFs(fs)

	v.Set("database.system", cfg.Database.System)
	v.Set("database.user", cfg.Database.User)
	v.Set("database.password", cfg.Database.Password)
	v.Set("database.host", cfg.Database.Host)
	v.Set("database.port", cfg.Database.Port)
	v.Set("database.name", cfg.Database.Name)
	v.Set("database.sslmode", cfg.Database.SSLMode)
	v.Set("database.schemas", cfg.Database.Schemas)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("batch.size", cfg.Batch.Size)
	v.Set("probe_timeout", cfg.ProbeTimeout.String())

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

// DefaultPath is where SaveConfig writes when no path is given.
func DefaultPath(home string) (string, error) {
	if home == "" {
		var err error
		if home, err = homedir.Dir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(home, ".config", "ehrquery", FileName+".yaml"), nil
}

func newViper(opts *Options) (*viper.Viper, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Home == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		opts.Home = home
	}

	v := viper.New()
	v.SetFs(opts.Fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v, nil
}

// loadDotenv applies EHRQUERY_* entries of dir/.env and dir/.env.local.
// Variables already present in the process environment win.
func loadDotenv(v *viper.Viper, fs afero.Fs, dir string) error {
	env := map[string]string{}
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		f, err := fs.Open(path)
		if err != nil {
			continue
		}
		values, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for k, val := range values {
			env[k] = val
		}
	}

	for _, key := range v.AllKeys() {
		name := EnvName(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if val, ok := env[name]; ok {
			v.Set(key, val)
		}
	}
	return nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
