package store

import (
	"context"
	"fmt"

	"marketguard/internal/domain"
)

func (s *Store) CreateCostItem(ctx context.Context, c *domain.CostItem) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cost_items (product_id, label, amount, kind) VALUES (?, ?, ?, ?)`,
		c.ProductID, c.Label, c.Amount, string(c.Kind))
	if err != nil {
		return 0, fmt.Errorf("store: create cost item: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) DeleteCostItem(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cost_items WHERE id = ?`, id)
	return err
}

func (s *Store) ListCostItemsByProduct(ctx context.Context, productID int64) ([]domain.CostItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, label, amount, kind FROM cost_items WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("store: list cost items: %w", err)
	}
	defer rows.Close()

	var out []domain.CostItem
	for rows.Next() {
		var c domain.CostItem
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Label, &c.Amount, &c.Kind); err != nil {
			return nil, fmt.Errorf("store: scan cost item: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCostPreset stores a named, tenant-owned bundle of cost items that
// can be applied to new products from the UI.
func (s *Store) CreateCostPreset(ctx context.Context, p *domain.CostPreset) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin cost preset tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO cost_presets (tenant_id, name) VALUES (?, ?)`, p.TenantID, p.Name)
	if err != nil {
		return 0, fmt.Errorf("store: create cost preset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: cost preset id: %w", err)
	}
	for _, item := range p.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cost_preset_items (preset_id, label, amount, kind) VALUES (?, ?, ?, ?)`,
			id, item.Label, item.Amount, string(item.Kind)); err != nil {
			return 0, fmt.Errorf("store: create cost preset item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit cost preset: %w", err)
	}
	return id, nil
}

func (s *Store) ListCostPresetsByTenant(ctx context.Context, tenantID int64) ([]domain.CostPreset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, name FROM cost_presets WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list cost presets: %w", err)
	}
	defer rows.Close()

	var presets []domain.CostPreset
	for rows.Next() {
		var p domain.CostPreset
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name); err != nil {
			return nil, fmt.Errorf("store: scan cost preset: %w", err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range presets {
		itemRows, err := s.db.QueryContext(ctx,
			`SELECT label, amount, kind FROM cost_preset_items WHERE preset_id = ?`, presets[i].ID)
		if err != nil {
			return nil, fmt.Errorf("store: list cost preset items: %w", err)
		}
		for itemRows.Next() {
			var item domain.CostItem
			if err := itemRows.Scan(&item.Label, &item.Amount, &item.Kind); err != nil {
				itemRows.Close()
				return nil, fmt.Errorf("store: scan cost preset item: %w", err)
			}
			item.ProductID = 0
			presets[i].Items = append(presets[i].Items, item)
		}
		itemRows.Close()
		if err := itemRows.Err(); err != nil {
			return nil, err
		}
	}
	return presets, nil
}
