package alertengine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"marketguard/internal/config"
	"marketguard/internal/domain"
	"marketguard/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{AlertDedupWindow: 24 * time.Hour}
	push := NewPushSender(st, cfg, zap.NewNop())
	return NewEngine(st, push, cfg, zap.NewNop()), st
}

func insertRanking(t *testing.T, st *store.Store, r *domain.Ranking) {
	t.Helper()
	tx, err := st.DB().Begin()
	if err != nil {
		t.Fatalf("DB().Begin() error = %v", err)
	}
	if err := st.InsertRanking(context.Background(), tx, r); err != nil {
		t.Fatalf("InsertRanking() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit() error = %v", err)
	}
}

func TestCheckAfterPersist_UndercutFiresAlert(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := st.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 10000})
	product, _ := st.GetProduct(ctx, productID)
	keywordID, _ := st.CreateKeyword(ctx, &domain.Keyword{ProductID: productID, Text: "widget", SortMode: domain.SortRelevance}, 5)
	keywords, _ := st.ListKeywordsByProduct(ctx, productID, false)

	insertRanking(t, st, &domain.Ranking{
		KeywordID: keywordID, CrawledAt: time.Now(), Rank: 1, Price: 8000, Mall: "cheapmart",
		ListingID: "L1", IsRelevant: true,
	})

	if err := engine.CheckAfterPersist(ctx, product, keywords); err != nil {
		t.Fatalf("CheckAfterPersist() error = %v", err)
	}

	alerts, err := st.ListAlertsByTenant(ctx, tenantID, false, 10)
	if err != nil {
		t.Fatalf("ListAlertsByTenant() error = %v", err)
	}
	if len(alerts) != 1 || alerts[0].Kind != domain.AlertPriceUndercut {
		t.Fatalf("alerts = %+v, want one price_undercut alert", alerts)
	}
}

func TestCheckAfterPersist_IrrelevantListingNoAlert(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := st.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 10000})
	product, _ := st.GetProduct(ctx, productID)
	keywordID, _ := st.CreateKeyword(ctx, &domain.Keyword{ProductID: productID, Text: "widget", SortMode: domain.SortRelevance}, 5)
	keywords, _ := st.ListKeywordsByProduct(ctx, productID, false)

	insertRanking(t, st, &domain.Ranking{
		KeywordID: keywordID, CrawledAt: time.Now(), Rank: 1, Price: 8000, Mall: "cheapmart",
		ListingID: "L1", IsRelevant: false,
	})

	if err := engine.CheckAfterPersist(ctx, product, keywords); err != nil {
		t.Fatalf("CheckAfterPersist() error = %v", err)
	}
	alerts, err := st.ListAlertsByTenant(ctx, tenantID, false, 10)
	if err != nil {
		t.Fatalf("ListAlertsByTenant() error = %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts = %+v, want none for an irrelevant-only listing", alerts)
	}
}

func TestCheckAfterPersist_DedupSuppressesSecondAlert(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := st.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 10000})
	product, _ := st.GetProduct(ctx, productID)
	keywordID, _ := st.CreateKeyword(ctx, &domain.Keyword{ProductID: productID, Text: "widget", SortMode: domain.SortRelevance}, 5)
	keywords, _ := st.ListKeywordsByProduct(ctx, productID, false)

	insertRanking(t, st, &domain.Ranking{
		KeywordID: keywordID, CrawledAt: time.Now(), Rank: 1, Price: 8000, Mall: "cheapmart",
		ListingID: "L1", IsRelevant: true,
	})
	if err := engine.CheckAfterPersist(ctx, product, keywords); err != nil {
		t.Fatalf("CheckAfterPersist() first call error = %v", err)
	}
	if err := engine.CheckAfterPersist(ctx, product, keywords); err != nil {
		t.Fatalf("CheckAfterPersist() second call error = %v", err)
	}

	alerts, err := st.ListAlertsByTenant(ctx, tenantID, false, 10)
	if err != nil {
		t.Fatalf("ListAlertsByTenant() error = %v", err)
	}
	if len(alerts) != 1 {
		t.Errorf("alerts = %+v, want exactly one alert after dedup window suppresses the repeat", alerts)
	}
}

func TestCheckAfterPersist_DisabledSettingSkipsCheck(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := st.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 10000})
	product, _ := st.GetProduct(ctx, productID)
	keywordID, _ := st.CreateKeyword(ctx, &domain.Keyword{ProductID: productID, Text: "widget", SortMode: domain.SortRelevance}, 5)
	keywords, _ := st.ListKeywordsByProduct(ctx, productID, false)

	if err := st.UpsertAlertSetting(ctx, domain.AlertSetting{TenantID: tenantID, Kind: domain.AlertPriceUndercut, Enabled: false}); err != nil {
		t.Fatalf("UpsertAlertSetting() error = %v", err)
	}

	insertRanking(t, st, &domain.Ranking{
		KeywordID: keywordID, CrawledAt: time.Now(), Rank: 1, Price: 8000, Mall: "cheapmart",
		ListingID: "L1", IsRelevant: true,
	})

	if err := engine.CheckAfterPersist(ctx, product, keywords); err != nil {
		t.Fatalf("CheckAfterPersist() error = %v", err)
	}
	alerts, err := st.ListAlertsByTenant(ctx, tenantID, false, 10)
	if err != nil {
		t.Fatalf("ListAlertsByTenant() error = %v", err)
	}
	if len(alerts) != 0 {
		t.Errorf("alerts = %+v, want none when the undercut setting is disabled", alerts)
	}
}
