package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sqlite  string
	pg      string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sqlite: `
CREATE TABLE IF NOT EXISTS profiles (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	last_login_at TEXT
);

CREATE TABLE IF NOT EXISTS sessions (
	id                 TEXT PRIMARY KEY,
	profile_id         TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	refresh_token_hash TEXT NOT NULL UNIQUE,
	expires_at         TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	last_seen_at       TEXT NOT NULL,
	ip_address         TEXT,
	user_agent         TEXT
);

CREATE TABLE IF NOT EXISTS categories (
	id         INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bucket_items (
	id                 TEXT PRIMARY KEY,
	profile_id         TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	title              TEXT NOT NULL,
	description        TEXT,
	category_id        INTEGER NOT NULL REFERENCES categories(id),
	priority           TEXT NOT NULL CHECK (priority IN ('high', 'medium', 'low')),
	status             TEXT NOT NULL DEFAULT 'not_started'
	                   CHECK (status IN ('not_started', 'in_progress', 'completed')),
	is_public          INTEGER NOT NULL DEFAULT 0,
	due_date           TEXT,
	due_type           TEXT,
	completed_at       TEXT,
	completion_comment TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bucket_items_profile ON bucket_items(profile_id, created_at);
CREATE INDEX IF NOT EXISTS idx_bucket_items_public ON bucket_items(is_public, created_at);
CREATE INDEX IF NOT EXISTS idx_bucket_items_category ON bucket_items(category_id);
CREATE INDEX IF NOT EXISTS idx_sessions_profile ON sessions(profile_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`,
		pg: `
CREATE TABLE IF NOT EXISTS profiles (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	last_login_at TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_profiles_email ON profiles (LOWER(email));

CREATE TABLE IF NOT EXISTS sessions (
	id                 TEXT PRIMARY KEY,
	profile_id         TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	refresh_token_hash TEXT NOT NULL UNIQUE,
	expires_at         TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	last_seen_at       TEXT NOT NULL,
	ip_address         TEXT,
	user_agent         TEXT
);

CREATE TABLE IF NOT EXISTS categories (
	id         BIGINT PRIMARY KEY,
	name       TEXT NOT NULL,
	color      TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS bucket_items (
	id                 TEXT PRIMARY KEY,
	profile_id         TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
	title              TEXT NOT NULL,
	description        TEXT,
	category_id        BIGINT NOT NULL REFERENCES categories(id),
	priority           TEXT NOT NULL CHECK (priority IN ('high', 'medium', 'low')),
	status             TEXT NOT NULL DEFAULT 'not_started'
	                   CHECK (status IN ('not_started', 'in_progress', 'completed')),
	is_public          BOOLEAN NOT NULL DEFAULT FALSE,
	due_date           TEXT,
	due_type           TEXT,
	completed_at       TEXT,
	completion_comment TEXT,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bucket_items_profile ON bucket_items(profile_id, created_at);
CREATE INDEX IF NOT EXISTS idx_bucket_items_public ON bucket_items(is_public, created_at);
CREATE INDEX IF NOT EXISTS idx_bucket_items_category ON bucket_items(category_id);
CREATE INDEX IF NOT EXISTS idx_sessions_profile ON sessions(profile_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
`,
	},
	{
		version: 2,
		sqlite: `
CREATE VIEW IF NOT EXISTS user_bucket_stats AS ` + statsViewSelect,
		pg: `
CREATE OR REPLACE VIEW user_bucket_stats AS ` + statsViewSelect,
	},
}

const statsViewSelect = `
SELECT
	p.id           AS profile_id,
	p.display_name AS display_name,
	COUNT(b.id)    AS total_items,
	COALESCE(SUM(CASE WHEN b.status = 'completed'   THEN 1 ELSE 0 END), 0) AS completed_items,
	COALESCE(SUM(CASE WHEN b.status = 'in_progress' THEN 1 ELSE 0 END), 0) AS in_progress_items,
	COALESCE(SUM(CASE WHEN b.status = 'not_started' THEN 1 ELSE 0 END), 0) AS not_started_items
FROM profiles p
LEFT JOIN bucket_items b ON b.profile_id = p.id
GROUP BY p.id, p.display_name;
`

// SchemaVersion returns the highest applied migration.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, fmt.Errorf("create schema_version table: %w", err)
	}
	var version int
	if err := s.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

// Migrate applies outstanding migrations in order, each in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		body := m.sqlite
		if s.dialect == DialectPostgres {
			body = m.pg
		}

		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, strings.TrimSpace(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}

		s.logger.Info("applied migration", "version", m.version)
	}
	return nil
}
