// Package store is the data store façade (spec component H): typed,
// batched access to catalog, keywords, rankings, crawl logs, overrides and
// alerts, backed by SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection pool and exposes typed accessors.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	// SQLite only allows one writer at a time; a single shared connection
	// avoids SQLITE_BUSY under WAL for the coordinator's sequential
	// per-keyword transactions; readers share that one connection too, so
	// all database access is serialized.
	sqlDB.SetMaxOpenConns(1)

	s := &Store{db: sqlDB}
	if err := s.migrate(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the raw *sql.DB for callers that need custom transactions
// (the crawl coordinator's per-keyword persist, for instance).
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	_ = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version >= 1 {
		return nil
	}

	_, err := s.db.ExecContext(ctx, schemaV1)
	if err != nil {
		return fmt.Errorf("migration v1: %w", err)
	}
	return nil
}

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

CREATE TABLE IF NOT EXISTS tenants (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	name                   TEXT NOT NULL,
	own_store_label        TEXT NOT NULL DEFAULT '',
	crawl_interval_minutes INTEGER NOT NULL DEFAULT 0,
	created_at             TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS catalog_products (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id             INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name                  TEXT NOT NULL,
	category              TEXT NOT NULL DEFAULT '',
	cost_price            INTEGER NOT NULL DEFAULT 0 CHECK (cost_price >= 0),
	selling_price         INTEGER NOT NULL DEFAULT 0 CHECK (selling_price >= 0),
	own_listing_id        TEXT NOT NULL DEFAULT '',
	model_code            TEXT NOT NULL DEFAULT '',
	spec_keywords         TEXT NOT NULL DEFAULT '[]',
	price_filter_min_pct  REAL NOT NULL DEFAULT 0,
	price_filter_max_pct  REAL NOT NULL DEFAULT 0,
	price_locked          INTEGER NOT NULL DEFAULT 0,
	attributes            TEXT NOT NULL DEFAULT '{}',
	created_at            TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_products_tenant ON catalog_products(tenant_id);

CREATE TABLE IF NOT EXISTS keywords (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id      INTEGER NOT NULL REFERENCES catalog_products(id) ON DELETE CASCADE,
	text            TEXT NOT NULL,
	sort_mode       TEXT NOT NULL DEFAULT 'relevance',
	is_primary      INTEGER NOT NULL DEFAULT 0,
	active          INTEGER NOT NULL DEFAULT 1,
	last_crawled_at TEXT,
	last_status     TEXT NOT NULL DEFAULT 'pending',
	created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	UNIQUE(product_id, text)
);
CREATE INDEX IF NOT EXISTS idx_keywords_product ON keywords(product_id);
CREATE INDEX IF NOT EXISTS idx_keywords_active ON keywords(product_id, active);

CREATE TABLE IF NOT EXISTS rankings (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword_id        INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
	crawled_at        TEXT NOT NULL,
	rank              INTEGER NOT NULL,
	title             TEXT NOT NULL DEFAULT '',
	price             INTEGER NOT NULL DEFAULT 0,
	mall              TEXT NOT NULL DEFAULT '',
	listing_id        TEXT NOT NULL DEFAULT '',
	shipping_fee      INTEGER NOT NULL DEFAULT 0,
	shipping_fee_type TEXT NOT NULL DEFAULT 'unknown',
	brand             TEXT NOT NULL DEFAULT '',
	maker             TEXT NOT NULL DEFAULT '',
	category1         TEXT NOT NULL DEFAULT '',
	category2         TEXT NOT NULL DEFAULT '',
	category3         TEXT NOT NULL DEFAULT '',
	category4         TEXT NOT NULL DEFAULT '',
	is_own_store      INTEGER NOT NULL DEFAULT 0,
	is_relevant       INTEGER NOT NULL DEFAULT 0,
	relevance_reason  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_rankings_keyword_time ON rankings(keyword_id, crawled_at);
CREATE INDEX IF NOT EXISTS idx_rankings_listing ON rankings(listing_id);

CREATE TABLE IF NOT EXISTS blacklist_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id INTEGER NOT NULL REFERENCES catalog_products(id) ON DELETE CASCADE,
	listing_id TEXT NOT NULL,
	mall_name  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	UNIQUE(product_id, listing_id)
);
CREATE INDEX IF NOT EXISTS idx_blacklist_product ON blacklist_entries(product_id);
CREATE INDEX IF NOT EXISTS idx_blacklist_listing ON blacklist_entries(listing_id);

CREATE TABLE IF NOT EXISTS include_overrides (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id INTEGER NOT NULL REFERENCES catalog_products(id) ON DELETE CASCADE,
	listing_id TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	UNIQUE(product_id, listing_id)
);
CREATE INDEX IF NOT EXISTS idx_include_product ON include_overrides(product_id);
CREATE INDEX IF NOT EXISTS idx_include_listing ON include_overrides(listing_id);

CREATE TABLE IF NOT EXISTS shipping_overrides (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id   INTEGER NOT NULL REFERENCES catalog_products(id) ON DELETE CASCADE,
	listing_id   TEXT NOT NULL,
	shipping_fee INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	UNIQUE(product_id, listing_id)
);
CREATE INDEX IF NOT EXISTS idx_shipping_override_product ON shipping_overrides(product_id);
CREATE INDEX IF NOT EXISTS idx_shipping_override_listing ON shipping_overrides(listing_id);

CREATE TABLE IF NOT EXISTS crawl_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	keyword_id  INTEGER NOT NULL REFERENCES keywords(id) ON DELETE CASCADE,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_crawl_logs_keyword_time ON crawl_logs(keyword_id, created_at);

CREATE TABLE IF NOT EXISTS alerts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id  INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	product_id INTEGER NOT NULL DEFAULT 0,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	body       TEXT NOT NULL,
	payload    TEXT NOT NULL DEFAULT '{}',
	is_read    INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);
CREATE INDEX IF NOT EXISTS idx_alerts_product_kind_time ON alerts(product_id, kind, created_at);
CREATE INDEX IF NOT EXISTS idx_alerts_tenant ON alerts(tenant_id);

CREATE TABLE IF NOT EXISTS alert_settings (
	tenant_id INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	kind      TEXT NOT NULL,
	enabled   INTEGER NOT NULL DEFAULT 1,
	threshold REAL,
	PRIMARY KEY (tenant_id, kind)
);

CREATE TABLE IF NOT EXISTS push_subscriptions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id  INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	endpoint   TEXT NOT NULL,
	p256dh     TEXT NOT NULL,
	auth       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
	UNIQUE(tenant_id, endpoint)
);
CREATE INDEX IF NOT EXISTS idx_push_tenant ON push_subscriptions(tenant_id);

CREATE TABLE IF NOT EXISTS cost_items (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id INTEGER NOT NULL REFERENCES catalog_products(id) ON DELETE CASCADE,
	label      TEXT NOT NULL,
	amount     REAL NOT NULL DEFAULT 0,
	kind       TEXT NOT NULL DEFAULT 'fixed'
);
CREATE INDEX IF NOT EXISTS idx_cost_items_product ON cost_items(product_id);

CREATE TABLE IF NOT EXISTS cost_presets (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id INTEGER NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
	name      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cost_preset_items (
	preset_id INTEGER NOT NULL REFERENCES cost_presets(id) ON DELETE CASCADE,
	label     TEXT NOT NULL,
	amount    REAL NOT NULL DEFAULT 0,
	kind      TEXT NOT NULL DEFAULT 'fixed'
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`
