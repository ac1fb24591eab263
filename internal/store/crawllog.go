package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketguard/internal/domain"
)

// InsertCrawlLog records one keyword fetch/persist attempt inside the
// caller's per-keyword transaction.
func (s *Store) InsertCrawlLog(ctx context.Context, tx *sql.Tx, l *domain.CrawlLog) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO crawl_logs (keyword_id, status, error, duration_ms) VALUES (?, ?, ?, ?)`,
		l.KeywordID, string(l.Status), l.Error, l.DurationMS)
	if err != nil {
		return fmt.Errorf("store: insert crawl log: %w", err)
	}
	return nil
}

func (s *Store) ListCrawlLogsByKeyword(ctx context.Context, keywordID int64, limit int) ([]domain.CrawlLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, keyword_id, status, error, duration_ms, created_at
		FROM crawl_logs WHERE keyword_id = ? ORDER BY created_at DESC LIMIT ?`, keywordID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list crawl logs: %w", err)
	}
	defer rows.Close()

	var out []domain.CrawlLog
	for rows.Next() {
		var l domain.CrawlLog
		var createdAt string
		if err := rows.Scan(&l.ID, &l.KeywordID, &l.Status, &l.Error, &l.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan crawl log: %w", err)
		}
		l.CreatedAt = parseTime(createdAt)
		out = append(out, l)
	}
	return out, rows.Err()
}

// CrawlMetrics24h summarizes crawl_logs over the trailing 24 hours for the
// /health endpoint.
type CrawlMetrics24h struct {
	Total   int
	Success int
	Failed  int
}

func (s *Store) CrawlMetrics24h(ctx context.Context) (CrawlMetrics24h, error) {
	var m CrawlMetrics24h
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END)
		FROM crawl_logs
		WHERE created_at >= strftime('%Y-%m-%dT%H:%M:%fZ', 'now', '-24 hours')`)
	var success, failed sql.NullInt64
	if err := row.Scan(&m.Total, &success, &failed); err != nil {
		return m, fmt.Errorf("store: crawl metrics 24h: %w", err)
	}
	m.Success = int(success.Int64)
	m.Failed = int(failed.Int64)
	return m, nil
}

// TenantCrawlMetrics24h is the /crawl/status response shape: keyword count
// plus the trailing-24h success/failure split and mean duration across the
// tenant's keywords.
type TenantCrawlMetrics24h struct {
	TotalKeywords  int
	Success24h     int
	Failed24h      int
	AvgDurationMS  float64
}

func (s *Store) CrawlMetrics24hByTenant(ctx context.Context, tenantID int64) (TenantCrawlMetrics24h, error) {
	var m TenantCrawlMetrics24h
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM keywords k JOIN catalog_products p ON p.id = k.product_id WHERE p.tenant_id = ?`,
		tenantID).Scan(&m.TotalKeywords); err != nil {
		return m, fmt.Errorf("store: count tenant keywords: %w", err)
	}

	var success, failed sql.NullInt64
	var avgMS sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			SUM(CASE WHEN cl.status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN cl.status = 'failed' THEN 1 ELSE 0 END),
			AVG(cl.duration_ms)
		FROM crawl_logs cl
		JOIN keywords k ON k.id = cl.keyword_id
		JOIN catalog_products p ON p.id = k.product_id
		WHERE p.tenant_id = ? AND cl.created_at >= strftime('%Y-%m-%dT%H:%M:%fZ', 'now', '-24 hours')`,
		tenantID).Scan(&success, &failed, &avgMS)
	if err != nil {
		return m, fmt.Errorf("store: tenant crawl metrics 24h: %w", err)
	}
	m.Success24h = int(success.Int64)
	m.Failed24h = int(failed.Int64)
	m.AvgDurationMS = avgMS.Float64
	return m, nil
}

// DeleteOldCrawlLogs removes up to limit rows older than cutoff in one
// transaction, returning how many rows were deleted. SQLite has no
// DELETE ... LIMIT by default, so the batch is scoped via a subquery over
// rowids.
func (s *Store) DeleteOldCrawlLogs(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM crawl_logs WHERE id IN (
			SELECT id FROM crawl_logs WHERE created_at < ? ORDER BY id LIMIT ?
		)`, cutoff.UTC().Format(time.RFC3339Nano), limit)
	if err != nil {
		return 0, fmt.Errorf("store: delete old crawl logs: %w", err)
	}
	return res.RowsAffected()
}
