package store

import (
	"context"
	"fmt"

	"marketguard/internal/domain"
)

func (s *Store) CreateIncludeOverride(ctx context.Context, o *domain.IncludeOverride) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO include_overrides (product_id, listing_id) VALUES (?, ?)`,
		o.ProductID, o.ListingID)
	if err != nil {
		return 0, fmt.Errorf("store: create include override: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) DeleteIncludeOverride(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM include_overrides WHERE id = ?`, id)
	return err
}

func (s *Store) ListIncludeOverridesByProduct(ctx context.Context, productID int64) ([]domain.IncludeOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, listing_id, created_at FROM include_overrides WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("store: list include overrides: %w", err)
	}
	defer rows.Close()

	var out []domain.IncludeOverride
	for rows.Next() {
		var o domain.IncludeOverride
		var createdAt string
		if err := rows.Scan(&o.ID, &o.ProductID, &o.ListingID, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan include override: %w", err)
		}
		o.CreatedAt = parseTime(createdAt)
		out = append(out, o)
	}
	return out, rows.Err()
}

// IncludedListingIDs returns the set of listing ids force-included for a
// product, the relevance classifier's third decision step.
func (s *Store) IncludedListingIDs(ctx context.Context, productID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT listing_id FROM include_overrides WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("store: included listing ids: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan included listing id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// CreateShippingOverride pins listing_id's shipping fee for product, then
// retroactively rewrites every extant ranking row for that listing (§3).
// Rankings inserted by later crawls are not rewritten.
func (s *Store) CreateShippingOverride(ctx context.Context, o *domain.ShippingOverride) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin shipping override tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO shipping_overrides (product_id, listing_id, shipping_fee)
		VALUES (?, ?, ?)
		ON CONFLICT(product_id, listing_id) DO UPDATE SET shipping_fee = excluded.shipping_fee`,
		o.ProductID, o.ListingID, o.ShippingFee)
	if err != nil {
		return 0, fmt.Errorf("store: create shipping override: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: shipping override id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE rankings
		SET shipping_fee = ?, shipping_fee_type = ?
		WHERE listing_id = ? AND keyword_id IN (
			SELECT id FROM keywords WHERE product_id = ?
		)`, o.ShippingFee, string(domain.ShippingPaid), o.ListingID, o.ProductID); err != nil {
		return 0, fmt.Errorf("store: apply shipping override retroactively: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit shipping override: %w", err)
	}
	return id, nil
}

func (s *Store) DeleteShippingOverride(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM shipping_overrides WHERE id = ?`, id)
	return err
}

func (s *Store) ListShippingOverridesByProduct(ctx context.Context, productID int64) ([]domain.ShippingOverride, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, listing_id, shipping_fee, created_at FROM shipping_overrides WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("store: list shipping overrides: %w", err)
	}
	defer rows.Close()

	var out []domain.ShippingOverride
	for rows.Next() {
		var o domain.ShippingOverride
		var createdAt string
		if err := rows.Scan(&o.ID, &o.ProductID, &o.ListingID, &o.ShippingFee, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan shipping override: %w", err)
		}
		o.CreatedAt = parseTime(createdAt)
		out = append(out, o)
	}
	return out, rows.Err()
}
