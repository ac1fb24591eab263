package scheduler

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"marketguard/internal/domain"
	"marketguard/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIsDue_NeverCrawledIsDue(t *testing.T) {
	st := newTestStore(t)
	s := &Scheduler{store: st, log: zap.NewNop()}
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})

	due, err := s.isDue(ctx, tenantID, 60, time.Now())
	if err != nil {
		t.Fatalf("isDue() error = %v", err)
	}
	if !due {
		t.Error("isDue() = false, want true for a tenant never crawled")
	}
}

func TestIsDue_RecentCrawlNotDue(t *testing.T) {
	st := newTestStore(t)
	s := &Scheduler{store: st, log: zap.NewNop()}
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := st.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 1000})
	keywordID, _ := st.CreateKeyword(ctx, &domain.Keyword{ProductID: productID, Text: "widget", SortMode: domain.SortRelevance}, 5)

	markCrawled(t, st, keywordID, time.Now())

	due, err := s.isDue(ctx, tenantID, 60, time.Now())
	if err != nil {
		t.Fatalf("isDue() error = %v", err)
	}
	if due {
		t.Error("isDue() = true, want false right after a crawl")
	}
}

func TestIsDue_StaleCrawlIsDue(t *testing.T) {
	st := newTestStore(t)
	s := &Scheduler{store: st, log: zap.NewNop()}
	ctx := context.Background()

	tenantID, _ := st.CreateTenant(ctx, &domain.Tenant{Name: "acme"})
	productID, _ := st.CreateProduct(ctx, &domain.CatalogProduct{TenantID: tenantID, Name: "widget", SellingPrice: 1000})
	keywordID, _ := st.CreateKeyword(ctx, &domain.Keyword{ProductID: productID, Text: "widget", SortMode: domain.SortRelevance}, 5)

	markCrawled(t, st, keywordID, time.Now().Add(-2*time.Hour))

	due, err := s.isDue(ctx, tenantID, 60, time.Now())
	if err != nil {
		t.Fatalf("isDue() error = %v", err)
	}
	if !due {
		t.Error("isDue() = false, want true once the interval has elapsed")
	}
}

func markCrawled(t *testing.T, st *store.Store, keywordID int64, at time.Time) {
	t.Helper()
	tx, err := st.DB().Begin()
	if err != nil {
		t.Fatalf("DB().Begin() error = %v", err)
	}
	if err := st.MarkKeywordCrawled(context.Background(), tx, keywordID, at, domain.KeywordSuccess); err != nil {
		t.Fatalf("MarkKeywordCrawled() error = %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("tx.Commit() error = %v", err)
	}
}

func TestDrain_StopsOnShortBatch(t *testing.T) {
	r := &Retention{log: zap.NewNop()}
	calls := 0
	del := func() (int64, error) {
		calls++
		if calls < 3 {
			return 5, nil
		}
		return 2, nil
	}

	total := r.drain(context.Background(), "rankings", del, 5)
	if total != 12 {
		t.Errorf("drain() total = %d, want 12", total)
	}
	if calls != 3 {
		t.Errorf("drain() called del %d times, want 3", calls)
	}
}

func TestDrain_StopsOnError(t *testing.T) {
	r := &Retention{log: zap.NewNop()}
	calls := 0
	del := func() (int64, error) {
		calls++
		if calls == 1 {
			return 5, nil
		}
		return 0, sql.ErrConnDone
	}

	total := r.drain(context.Background(), "rankings", del, 5)
	if total != 5 {
		t.Errorf("drain() total = %d, want 5", total)
	}
	if calls != 2 {
		t.Errorf("drain() called del %d times, want 2", calls)
	}
}

func TestDrain_StopsOnContextCancel(t *testing.T) {
	r := &Retention{log: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	del := func() (int64, error) {
		calls++
		return 5, nil
	}

	total := r.drain(ctx, "rankings", del, 5)
	if total != 0 {
		t.Errorf("drain() total = %d, want 0 when ctx is already canceled", total)
	}
	if calls != 0 {
		t.Errorf("drain() called del %d times, want 0", calls)
	}
}
