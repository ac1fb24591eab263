package store

import (
	"context"
	"fmt"

	"marketguard/internal/domain"
)

func (s *Store) CreateBlacklistEntry(ctx context.Context, e *domain.BlacklistEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO blacklist_entries (product_id, listing_id, mall_name) VALUES (?, ?, ?)`,
		e.ProductID, e.ListingID, e.MallName)
	if err != nil {
		return 0, fmt.Errorf("store: create blacklist entry: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) DeleteBlacklistEntry(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM blacklist_entries WHERE id = ?`, id)
	return err
}

func (s *Store) ListBlacklistByProduct(ctx context.Context, productID int64) ([]domain.BlacklistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, listing_id, mall_name, created_at
		FROM blacklist_entries WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("store: list blacklist: %w", err)
	}
	defer rows.Close()

	var out []domain.BlacklistEntry
	for rows.Next() {
		var e domain.BlacklistEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ListingID, &e.MallName, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan blacklist entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// BlacklistedListingIDs returns the set of listing ids blacklisted for a
// product, used by the relevance classifier's first decision step.
func (s *Store) BlacklistedListingIDs(ctx context.Context, productID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT listing_id FROM blacklist_entries WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("store: blacklisted listing ids: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan blacklisted listing id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}
