// Package providers contains dependency injection providers for the bucket list server.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("starting bucket list server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.BasePath,
		"db_driver", cfg.Database.Driver,
	)

	return log, nil
}
