// Package sqlstore implements the store contracts on SQLite or PostgreSQL
// using sqlx for scanning and squirrel for query building.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver(string(DialectSQLite), sqlx.QUESTION)
}

// Config selects the database.
type Config struct {
	Dialect Dialect
	// DSN is a file path for SQLite and a connection URL for PostgreSQL.
	DSN string
}

// Store provides SQL-backed persistence for the bucket list server.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	sq      squirrel.StatementBuilderType
	logger  *slog.Logger
	indexer store.ItemIndexer
	now     func() time.Time
}

var (
	_ store.Repository     = (*Store)(nil)
	_ store.AuthStore      = (*Store)(nil)
	_ store.CategorySeeder = (*Store)(nil)
)

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Dialect {
	case DialectSQLite, "":
		cfg.Dialect = DialectSQLite
		db, err = openSQLite(cfg.DSN)
	case DialectPostgres:
		db, err = sqlx.Open(string(DialectPostgres), cfg.DSN)
		if err == nil {
			db.SetMaxOpenConns(16)
			db.SetMaxIdleConns(4)
			db.SetConnMaxLifetime(30 * time.Minute)
		}
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Dialect, err)
	}

	s := New(db, cfg.Dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedDefaultCategories(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	logger.Info("database ready", "dialect", cfg.Dialect)
	return s, nil
}

// New wraps an existing connection without migrating it.
func New(db *sqlx.DB, dialect Dialect, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	builder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	if dialect == DialectPostgres {
		builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	}
	return &Store{
		db:      db,
		dialect: dialect,
		sq:      builder,
		logger:  logger,
		indexer: store.NoopItemIndexer{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func openSQLite(path string) (*sqlx.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	q := url.Values{}
	for _, p := range []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
		"busy_timeout(5000)",
	} {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := sqlx.Open(string(DialectSQLite), path+sep+q.Encode())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// SetItemIndexer mirrors item writes into idx.
func (s *Store) SetItemIndexer(idx store.ItemIndexer) {
	if idx == nil {
		idx = store.NoopItemIndexer{}
	}
	s.indexer = idx
}

// Dialect reports the SQL flavour in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return translate(err, "ping")
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Time helpers. Timestamps are stored as fixed-width UTC text so that
// lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullString(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}
