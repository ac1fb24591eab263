package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketguard/internal/domain"
)

// ErrNotFound is returned by single-row lookups that found nothing.
var ErrNotFound = errors.New("store: not found")

func (s *Store) CreateTenant(ctx context.Context, t *domain.Tenant) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (name, own_store_label, crawl_interval_minutes) VALUES (?, ?, ?)`,
		t.Name, t.OwnStoreLabel, t.CrawlIntervalMinutes)
	if err != nil {
		return 0, fmt.Errorf("store: create tenant: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetTenant(ctx context.Context, id int64) (*domain.Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, own_store_label, crawl_interval_minutes, created_at FROM tenants WHERE id = ?`, id)
	return scanTenant(row)
}

// ListTenants returns every tenant, used once per scheduler tick.
func (s *Store) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, own_store_label, crawl_interval_minutes, created_at FROM tenants`)
	if err != nil {
		return nil, fmt.Errorf("store: list tenants: %w", err)
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		var createdAt string
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnStoreLabel, &t.CrawlIntervalMinutes, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan tenant: %w", err)
		}
		t.CreatedAt = parseTime(createdAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTenant cascades to every owned row via foreign keys.
func (s *Store) DeleteTenant(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	return err
}

// LastCrawledAt returns the most recent Keyword.last_crawled_at across the
// tenant's products, used by the scheduler's due-time decision (§4.G).
func (s *Store) LastCrawledAt(ctx context.Context, tenantID int64) (time.Time, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT MAX(k.last_crawled_at)
		FROM keywords k
		JOIN catalog_products p ON p.id = k.product_id
		WHERE p.tenant_id = ?`, tenantID)
	var last sql.NullString
	if err := row.Scan(&last); err != nil {
		return time.Time{}, false, fmt.Errorf("store: last crawled at: %w", err)
	}
	if !last.Valid || last.String == "" {
		return time.Time{}, false, nil
	}
	return parseTime(last.String), true, nil
}

func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var createdAt string
	if err := row.Scan(&t.ID, &t.Name, &t.OwnStoreLabel, &t.CrawlIntervalMinutes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan tenant: %w", err)
	}
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02T15:04:05.000Z", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
