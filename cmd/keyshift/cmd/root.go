package cmd

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/keyshift/internal/core/config"
	"github.com/solatis/keyshift/internal/core/db"
	"github.com/solatis/keyshift/internal/log"
	"github.com/solatis/keyshift/internal/log/zerolog"
)

const Version = "0.1.0"

var configFile string

var rootCmd = &cobra.Command{
	Use:           "keyshift",
	Short:         "keyshift declarative document restructuring",
	Long:          `keyshift rewrites nested JSON documents into new shapes using declarative mapping rules.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.String("db-url", "", "database connection URL (sqlite://path or postgres://...)")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (json, text)")
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig merges defaults, config file, environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (log.Logger, error) {
	logger, err := zerolog.NewWriterLogger(cmd.ErrOrStderr(), zerolog.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// setup loads configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Config, log.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openDatabase connects to the configured database. With migrate set,
// pending migrations are applied first.
func openDatabase(ctx context.Context, cfg *config.Config, migrate bool) (*sqlx.DB, *db.Queries, error) {
	database, err := db.Open(ctx, cfg.DB.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if migrate {
		if err := db.MigrateUp(ctx, database); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}
