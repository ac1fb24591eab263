package store

import (
	"context"
	"path/filepath"
	"testing"

	"marketguard/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTenantCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateTenant(ctx, &domain.Tenant{Name: "acme", OwnStoreLabel: "acme store", CrawlIntervalMinutes: 60})
	if err != nil {
		t.Fatalf("CreateTenant() error = %v", err)
	}

	got, err := s.GetTenant(ctx, id)
	if err != nil {
		t.Fatalf("GetTenant() error = %v", err)
	}
	if got.Name != "acme" || got.CrawlIntervalMinutes != 60 {
		t.Errorf("GetTenant() = %+v, want name=acme interval=60", got)
	}

	if _, err := s.GetTenant(ctx, id+1); err != ErrNotFound {
		t.Errorf("GetTenant(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.DeleteTenant(ctx, id); err != nil {
		t.Fatalf("DeleteTenant() error = %v", err)
	}
	if _, err := s.GetTenant(ctx, id); err != ErrNotFound {
		t.Errorf("GetTenant(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestProductAndKeywordLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tenantID, _ := s.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, err := s.CreateProduct(ctx, &domain.CatalogProduct{
		TenantID: tenantID, Name: "widget", SellingPrice: 10000, CostPrice: 5000,
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	for i := 0; i < 5; i++ {
		k := &domain.Keyword{ProductID: productID, Text: "kw" + string(rune('a'+i)), SortMode: domain.SortRelevance, Active: true}
		if _, err := s.CreateKeyword(ctx, k, 5); err != nil {
			t.Fatalf("CreateKeyword() #%d error = %v", i, err)
		}
	}

	sixth := &domain.Keyword{ProductID: productID, Text: "overflow", SortMode: domain.SortRelevance, Active: true}
	if _, err := s.CreateKeyword(ctx, sixth, 5); err != ErrKeywordLimitReached {
		t.Errorf("CreateKeyword(6th) error = %v, want ErrKeywordLimitReached", err)
	}

	keywords, err := s.ListKeywordsByProduct(ctx, productID, false)
	if err != nil {
		t.Fatalf("ListKeywordsByProduct() error = %v", err)
	}
	if len(keywords) != 5 {
		t.Errorf("len(keywords) = %d, want 5", len(keywords))
	}
}

func TestCostItemsAndPresets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tenantID, _ := s.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := s.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 10000})

	if _, err := s.CreateCostItem(ctx, &domain.CostItem{ProductID: productID, Label: "packaging", Amount: 500, Kind: domain.CostFixed}); err != nil {
		t.Fatalf("CreateCostItem() error = %v", err)
	}
	items, err := s.ListCostItemsByProduct(ctx, productID)
	if err != nil {
		t.Fatalf("ListCostItemsByProduct() error = %v", err)
	}
	if len(items) != 1 || items[0].Amount != 500 {
		t.Errorf("ListCostItemsByProduct() = %+v, want one 500 fixed item", items)
	}

	preset := &domain.CostPreset{TenantID: tenantID, Name: "standard", Items: []domain.CostItem{
		{Label: "fee", Amount: 3, Kind: domain.CostPercent},
	}}
	if _, err := s.CreateCostPreset(ctx, preset); err != nil {
		t.Fatalf("CreateCostPreset() error = %v", err)
	}
	presets, err := s.ListCostPresetsByTenant(ctx, tenantID)
	if err != nil {
		t.Fatalf("ListCostPresetsByTenant() error = %v", err)
	}
	if len(presets) != 1 || len(presets[0].Items) != 1 {
		t.Errorf("ListCostPresetsByTenant() = %+v, want one preset with one item", presets)
	}
}

func TestAlertSettingDefaultsEnabled(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tenantID, _ := s.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	setting, err := s.AlertSetting(ctx, tenantID, domain.AlertPriceUndercut)
	if err != nil {
		t.Fatalf("AlertSetting() error = %v", err)
	}
	if !setting.Enabled || setting.Threshold != nil {
		t.Errorf("AlertSetting() default = %+v, want enabled=true threshold=nil", setting)
	}

	threshold := 5.0
	if err := s.UpsertAlertSetting(ctx, domain.AlertSetting{TenantID: tenantID, Kind: domain.AlertPriceUndercut, Enabled: false, Threshold: &threshold}); err != nil {
		t.Fatalf("UpsertAlertSetting() error = %v", err)
	}
	updated, err := s.AlertSetting(ctx, tenantID, domain.AlertPriceUndercut)
	if err != nil {
		t.Fatalf("AlertSetting() error = %v", err)
	}
	if updated.Enabled || updated.Threshold == nil || *updated.Threshold != 5.0 {
		t.Errorf("AlertSetting() after upsert = %+v, want enabled=false threshold=5.0", updated)
	}
}
