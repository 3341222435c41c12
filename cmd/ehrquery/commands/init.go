package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/ehrquery/internal/adapters/database"
	"github.com/satishbabariya/ehrquery/internal/config"
	"github.com/satishbabariya/ehrquery/internal/ui"
	"github.com/satishbabariya/ehrquery/pkg/query"
)

type initAnswers struct {
	System   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Schemas  string
}

func newInitCommand(a *app) *cobra.Command {
	var (
		path    string
		yes     bool
		answers initAnswers
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file",
		Long: `Write the database connection settings to a config file. Values come
from prompts, or from flags alone with --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if err := askInit(&answers); err != nil {
					return err
				}
			}
			cfg, err := a.initConfig(answers)
			if err != nil {
				return err
			}

			if path == "" {
				if path, err = config.DefaultPath(""); err != nil {
					return err
				}
			}
			if err := config.SaveConfig(a.fs, cfg, path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			ui.PrintSuccess(cmd.OutOrStdout(), "Wrote %s", path)
			ui.PrintInfo(cmd.OutOrStdout(), "Next: ehrquery --config %s schemas", path)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&path, "path", "", "config file to write (default: $HOME/.config/ehrquery/.ehrquery.yaml)")
	flags.BoolVarP(&yes, "yes", "y", false, "skip the prompts and use the flag values")
	flags.StringVar(&answers.System, "system", "postgresql", "database system: postgresql, mysql or sqlite")
	flags.StringVar(&answers.Host, "host", "localhost", "database host")
	flags.StringVar(&answers.Port, "port", "", "database port (default depends on the system)")
	flags.StringVar(&answers.User, "user", "", "database user")
	flags.StringVar(&answers.Name, "name", "", "database name, or file path for sqlite")
	flags.StringVar(&answers.Schemas, "schemas", "", "comma-separated schemas to expose (default: all)")
	return cmd
}

func askInit(answers *initAnswers) error {
	questions := []*survey.Question{
		{
			Name: "system",
			Prompt: &survey.Select{
				Message: "Database system:",
				Options: []string{"postgresql", "mysql", "sqlite"},
				Default: answers.System,
			},
		},
		{
			Name:     "name",
			Prompt:   &survey.Input{Message: "Database name (file path for sqlite):", Default: answers.Name},
			Validate: survey.Required,
		},
		{
			Name:   "schemas",
			Prompt: &survey.Input{Message: "Schemas to expose (comma-separated, empty for all):", Default: answers.Schemas},
		},
	}
	if err := survey.Ask(questions, answers); err != nil {
		return err
	}
	if answers.System == "sqlite" {
		return nil
	}

	server := []*survey.Question{
		{Name: "host", Prompt: &survey.Input{Message: "Host:", Default: answers.Host}, Validate: survey.Required},
		{Name: "port", Prompt: &survey.Input{Message: "Port:", Default: defaultPort(answers)}, Validate: validatePort},
		{Name: "user", Prompt: &survey.Input{Message: "User:", Default: answers.User}},
		{Name: "password", Prompt: &survey.Password{Message: "Password:"}},
	}
	return survey.Ask(server, answers)
}

func defaultPort(answers *initAnswers) string {
	if answers.Port != "" {
		return answers.Port
	}
	if answers.System == "mysql" {
		return "3306"
	}
	return "5432"
}

func validatePort(v any) error {
	s, _ := v.(string)
	if n, err := strconv.Atoi(s); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("not a port: %q", s)
	}
	return nil
}

func (a *app) initConfig(answers initAnswers) (*config.Config, error) {
	system, err := database.ParseSystem(answers.System)
	if err != nil {
		return nil, err
	}

	cfg := *a.cfg
	cfg.Database = config.DatabaseConfig{
		System:   string(system),
		User:     answers.User,
		Password: answers.Password,
		Name:     answers.Name,
	}
	if system != query.SQLite {
		port := defaultPort(&answers)
		if err := validatePort(port); err != nil {
			return nil, err
		}
		cfg.Database.Host = answers.Host
		cfg.Database.Port, _ = strconv.Atoi(port)
	}
	for _, s := range strings.Split(answers.Schemas, ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.Database.Schemas = append(cfg.Database.Schemas, s)
		}
	}
	return &cfg, nil
}
