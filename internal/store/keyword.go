package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketguard/internal/domain"
)

// ErrKeywordLimitReached is returned when a product already has
// MaxKeywordsPerProduct active keywords.
var ErrKeywordLimitReached = errors.New("store: keyword limit reached")

// ErrPrimaryKeywordUndeletable guards a product's primary keyword
// (is_primary) against deletion (§3).
var ErrPrimaryKeywordUndeletable = errors.New("store: primary keyword cannot be deleted")

// CreateKeyword inserts a keyword for product, refusing to exceed maxActive
// active keywords and silently no-opping on the (product_id, text) unique
// constraint.
func (s *Store) CreateKeyword(ctx context.Context, k *domain.Keyword, maxActive int) (int64, error) {
	var activeCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM keywords WHERE product_id = ? AND active = 1`, k.ProductID,
	).Scan(&activeCount); err != nil {
		return 0, fmt.Errorf("store: count active keywords: %w", err)
	}
	if k.Active && activeCount >= maxActive {
		return 0, ErrKeywordLimitReached
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO keywords (product_id, text, sort_mode, is_primary, active, last_status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		k.ProductID, k.Text, string(k.SortMode), boolToInt(k.IsPrimary), boolToInt(k.Active), string(domain.KeywordPending))
	if err != nil {
		return 0, fmt.Errorf("store: create keyword: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetKeyword(ctx context.Context, id int64) (*domain.Keyword, error) {
	row := s.db.QueryRowContext(ctx, keywordSelect+` WHERE id = ?`, id)
	return scanKeyword(row)
}

// ListKeywordsByProduct returns every keyword for a product. When
// activeOnly is true, inactive keywords are excluded (the crawl plan phase
// only ever fetches active keywords).
func (s *Store) ListKeywordsByProduct(ctx context.Context, productID int64, activeOnly bool) ([]domain.Keyword, error) {
	q := keywordSelect + ` WHERE product_id = ?`
	if activeOnly {
		q += ` AND active = 1`
	}
	rows, err := s.db.QueryContext(ctx, q, productID)
	if err != nil {
		return nil, fmt.Errorf("store: list keywords: %w", err)
	}
	defer rows.Close()
	return scanKeywords(rows)
}

// ListActiveKeywordsByTenant is the coordinator's plan-phase source of
// work: every active keyword for every product owned by tenantID, deduped
// downstream by (text, sort_mode) (§4.E).
func (s *Store) ListActiveKeywordsByTenant(ctx context.Context, tenantID int64) ([]domain.Keyword, error) {
	rows, err := s.db.QueryContext(ctx, keywordSelect+`
		WHERE active = 1 AND product_id IN (SELECT id FROM catalog_products WHERE tenant_id = ?)`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list active keywords by tenant: %w", err)
	}
	defer rows.Close()
	return scanKeywords(rows)
}

// DeleteKeyword refuses to remove a product's primary keyword.
func (s *Store) DeleteKeyword(ctx context.Context, id int64) error {
	k, err := s.GetKeyword(ctx, id)
	if err != nil {
		return err
	}
	if k.IsPrimary {
		return ErrPrimaryKeywordUndeletable
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM keywords WHERE id = ?`, id)
	return err
}

func (s *Store) SetKeywordActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE keywords SET active = ? WHERE id = ?`, boolToInt(active), id)
	return err
}

// MarkKeywordCrawled records the outcome of a crawl attempt, used by the
// coordinator's persist phase inside the per-keyword transaction.
func (s *Store) MarkKeywordCrawled(ctx context.Context, tx *sql.Tx, keywordID int64, at time.Time, status domain.KeywordStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE keywords SET last_crawled_at = ?, last_status = ? WHERE id = ?`,
		at.UTC().Format("2006-01-02T15:04:05.000Z"), string(status), keywordID)
	return err
}

const keywordSelect = `
	SELECT id, product_id, text, sort_mode, is_primary, active, last_crawled_at, last_status, created_at
	FROM keywords`

func scanKeyword(row *sql.Row) (*domain.Keyword, error) {
	var k domain.Keyword
	var isPrimary, active int
	var lastCrawledAt sql.NullString
	var createdAt string
	if err := row.Scan(&k.ID, &k.ProductID, &k.Text, &k.SortMode, &isPrimary, &active,
		&lastCrawledAt, &k.LastStatus, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan keyword: %w", err)
	}
	k.IsPrimary = isPrimary != 0
	k.Active = active != 0
	if lastCrawledAt.Valid && lastCrawledAt.String != "" {
		t := parseTime(lastCrawledAt.String)
		k.LastCrawledAt = &t
	}
	k.CreatedAt = parseTime(createdAt)
	return &k, nil
}

func scanKeywords(rows *sql.Rows) ([]domain.Keyword, error) {
	var out []domain.Keyword
	for rows.Next() {
		var k domain.Keyword
		var isPrimary, active int
		var lastCrawledAt sql.NullString
		var createdAt string
		if err := rows.Scan(&k.ID, &k.ProductID, &k.Text, &k.SortMode, &isPrimary, &active,
			&lastCrawledAt, &k.LastStatus, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan keyword: %w", err)
		}
		k.IsPrimary = isPrimary != 0
		k.Active = active != 0
		if lastCrawledAt.Valid && lastCrawledAt.String != "" {
			t := parseTime(lastCrawledAt.String)
			k.LastCrawledAt = &t
		}
		k.CreatedAt = parseTime(createdAt)
		out = append(out, k)
	}
	return out, rows.Err()
}
