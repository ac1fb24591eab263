package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"marketguard/internal/domain"
)

func (s *Store) CreateProduct(ctx context.Context, p *domain.CatalogProduct) (int64, error) {
	specKw, _ := json.Marshal(p.SpecKeywords)
	attrs, _ := json.Marshal(p.Attributes)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_products
			(tenant_id, name, category, cost_price, selling_price, own_listing_id,
			 model_code, spec_keywords, price_filter_min_pct, price_filter_max_pct,
			 price_locked, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TenantID, p.Name, p.Category, p.CostPrice, p.SellingPrice, p.OwnListingID,
		p.ModelCode, string(specKw), p.PriceFilterMinPct, p.PriceFilterMaxPct,
		boolToInt(p.PriceLocked), string(attrs))
	if err != nil {
		return 0, fmt.Errorf("store: create product: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*domain.CatalogProduct, error) {
	row := s.db.QueryRowContext(ctx, productSelect+` WHERE id = ?`, id)
	return scanProduct(row)
}

// ListProductsByTenant returns every product owned by a tenant, used by the
// coordinator's plan phase when scoping a tenant-wide run.
func (s *Store) ListProductsByTenant(ctx context.Context, tenantID int64) ([]domain.CatalogProduct, error) {
	rows, err := s.db.QueryContext(ctx, productSelect+` WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list products: %w", err)
	}
	defer rows.Close()
	return scanProducts(rows)
}

// GetProductsByIDs batches a lookup for a set of product ids in one query
// instead of one query per id.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]*domain.CatalogProduct, error) {
	out := make(map[int64]*domain.CatalogProduct, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx, productSelect+` WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: get products by ids: %w", err)
	}
	defer rows.Close()
	list, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

// UpdateSellingPrice is the crawl pipeline's only implicit mutation of
// catalog state (§4.C "own-price auto-update").
func (s *Store) UpdateSellingPrice(ctx context.Context, productID, price int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE catalog_products SET selling_price = ? WHERE id = ?`, price, productID)
	return err
}

const productSelect = `
	SELECT id, tenant_id, name, category, cost_price, selling_price, own_listing_id,
	       model_code, spec_keywords, price_filter_min_pct, price_filter_max_pct,
	       price_locked, attributes, created_at
	FROM catalog_products`

func scanProduct(row *sql.Row) (*domain.CatalogProduct, error) {
	var p domain.CatalogProduct
	var specKw, attrs, createdAt string
	var priceLocked int
	if err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Category, &p.CostPrice, &p.SellingPrice,
		&p.OwnListingID, &p.ModelCode, &specKw, &p.PriceFilterMinPct, &p.PriceFilterMaxPct,
		&priceLocked, &attrs, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: scan product: %w", err)
	}
	json.Unmarshal([]byte(specKw), &p.SpecKeywords)
	json.Unmarshal([]byte(attrs), &p.Attributes)
	p.PriceLocked = priceLocked != 0
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func scanProducts(rows *sql.Rows) ([]domain.CatalogProduct, error) {
	var out []domain.CatalogProduct
	for rows.Next() {
		var p domain.CatalogProduct
		var specKw, attrs, createdAt string
		var priceLocked int
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Category, &p.CostPrice, &p.SellingPrice,
			&p.OwnListingID, &p.ModelCode, &specKw, &p.PriceFilterMinPct, &p.PriceFilterMaxPct,
			&priceLocked, &attrs, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan product: %w", err)
		}
		json.Unmarshal([]byte(specKw), &p.SpecKeywords)
		json.Unmarshal([]byte(attrs), &p.Attributes)
		p.PriceLocked = priceLocked != 0
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	placeholders := ""
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = id
	}
	return placeholders, args
}
