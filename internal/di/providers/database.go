package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
}

// Shutdown implements do.Shutdowner.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured database and applies migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sqlstore.Open(ctx, StoreConfig(cfg), log)
	if err != nil {
		return nil, err
	}

	log.Info("database initialized", "driver", cfg.Database.Driver)
	return &StoreHandle{Store: db}, nil
}

// StoreConfig maps the application config onto the store's.
func StoreConfig(cfg *config.Config) sqlstore.Config {
	if cfg.Database.Driver == string(sqlstore.DialectPostgres) {
		return sqlstore.Config{Dialect: sqlstore.DialectPostgres, DSN: cfg.Database.DSN}
	}
	return sqlstore.Config{Dialect: sqlstore.DialectSQLite, DSN: cfg.DatabasePath()}
}
