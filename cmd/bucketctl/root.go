package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/di/providers"
	"github.com/bucketlistapp/bucketlist-server/internal/logger"
	"github.com/bucketlistapp/bucketlist-server/internal/store/sqlstore"
)

// globalFlags override the server configuration for a single invocation.
type globalFlags struct {
	dataPath string
	dbDriver string
	dbDSN    string
	logLevel string
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "bucketctl",
		Short: "Administer a bucket list server database",
		Long: `bucketctl operates on the bucket list database directly.

Settings are read the same way the server reads them (.env, environment,
then flags), so running it next to the server needs no extra arguments.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.dataPath, "data-path", "", "Base path for local data")
	pf.StringVar(&flags.dbDriver, "db-driver", "", "Database driver (sqlite, postgres)")
	pf.StringVar(&flags.dbDSN, "db-dsn", "", "Database file path or connection URL")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newMigrateCmd(flags),
		newSeedCmd(flags),
		newStatsCmd(flags),
		newReindexCmd(flags),
	)
	return rootCmd
}

// loadConfig forwards the persistent flags to config.Load so the usual
// precedence rules apply.
func (f *globalFlags) loadConfig() (*config.Config, error) {
	var args []string
	for _, kv := range [][2]string{
		{"-data-path", f.dataPath},
		{"-db-driver", f.dbDriver},
		{"-db-dsn", f.dbDSN},
		{"-log-level", f.logLevel},
	} {
		if kv[1] != "" {
			args = append(args, kv[0], kv[1])
		}
	}
	return config.Load(args)
}

func (f *globalFlags) newLogger(cfg *config.Config, cmd *cobra.Command) *slog.Logger {
	return logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Format:      logger.FormatPretty,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})
}

// openStore loads the configuration and opens the database, applying any
// pending migrations.
func (f *globalFlags) openStore(ctx context.Context, cmd *cobra.Command) (*config.Config, *sqlstore.Store, *slog.Logger, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := f.newLogger(cfg, cmd)

	db, err := sqlstore.Open(ctx, providers.StoreConfig(cfg), log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, db, log, nil
}
