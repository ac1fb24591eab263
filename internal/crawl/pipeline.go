package crawl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"marketguard/internal/domain"
	"marketguard/internal/marketplace"
	"marketguard/internal/metrics"
	"marketguard/internal/relevance"
	"marketguard/internal/store"
)

// KeywordResult is one keyword's outcome within a run, returned to the
// caller and mirrored into a CrawlLog row.
type KeywordResult struct {
	KeywordID  int64                 `json:"keyword_id"`
	Status     domain.CrawlRunStatus `json:"status"`
	Error      string                `json:"error,omitempty"`
	DurationMS int64                 `json:"duration_ms"`
}

// ProductSummary is the crawl_product response shape.
type ProductSummary struct {
	ProductID int64           `json:"product_id"`
	Results   []KeywordResult `json:"results"`
}

// TenantSummary is the crawl_tenant response shape.
type TenantSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type fetchOutcome struct {
	listings []marketplace.Listing
	err      error
	duration time.Duration
}

// CrawlProduct serves an on-demand crawl of one product. It acquires only
// the product-level mutex; a tenant-wide run touching the same product is
// tolerated (containment is by tenant scope, per the coordinator contract).
func (c *Coordinator) CrawlProduct(ctx context.Context, productID int64) (ProductSummary, error) {
	lock, acquired := c.tryLockProduct(productID)
	if !acquired {
		return ProductSummary{}, ErrAlreadyRunning
	}
	defer lock.Unlock()

	product, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		if err == store.ErrNotFound {
			return ProductSummary{}, ErrProductNotFound
		}
		return ProductSummary{}, fmt.Errorf("crawl: load product: %w", err)
	}

	keywords, err := c.store.ListKeywordsByProduct(ctx, productID, true)
	if err != nil {
		return ProductSummary{}, fmt.Errorf("crawl: load keywords: %w", err)
	}

	results, err := c.runPipeline(ctx, []*domain.CatalogProduct{product}, keywords)
	if err != nil {
		metrics.CrawlRunsTotal.WithLabelValues("product", "error").Inc()
		return ProductSummary{}, err
	}
	metrics.CrawlRunsTotal.WithLabelValues("product", "ok").Inc()
	return ProductSummary{ProductID: productID, Results: results[productID]}, nil
}

// CrawlTenant runs every active keyword owned by tenantID.
func (c *Coordinator) CrawlTenant(ctx context.Context, tenantID int64) (TenantSummary, error) {
	lock, acquired := c.tryLockTenant(tenantID)
	if !acquired {
		return TenantSummary{}, ErrAlreadyRunning
	}
	defer lock.Unlock()

	tenant, err := c.store.GetTenant(ctx, tenantID)
	if err != nil {
		if err == store.ErrNotFound {
			return TenantSummary{}, ErrTenantNotFound
		}
		return TenantSummary{}, fmt.Errorf("crawl: load tenant: %w", err)
	}
	_ = tenant

	products, err := c.store.ListProductsByTenant(ctx, tenantID)
	if err != nil {
		return TenantSummary{}, fmt.Errorf("crawl: load products: %w", err)
	}
	productPtrs := make([]*domain.CatalogProduct, len(products))
	for i := range products {
		productPtrs[i] = &products[i]
	}

	keywords, err := c.store.ListActiveKeywordsByTenant(ctx, tenantID)
	if err != nil {
		return TenantSummary{}, fmt.Errorf("crawl: load active keywords: %w", err)
	}

	results, err := c.runPipeline(ctx, productPtrs, keywords)
	if err != nil {
		metrics.CrawlRunsTotal.WithLabelValues("tenant", "error").Inc()
		return TenantSummary{}, err
	}
	metrics.CrawlRunsTotal.WithLabelValues("tenant", "ok").Inc()

	var summary TenantSummary
	for _, keywordResults := range results {
		for _, r := range keywordResults {
			summary.Total++
			if r.Status == domain.CrawlStatusSuccess {
				summary.Success++
			} else {
				summary.Failed++
			}
		}
	}
	return summary, nil
}

// runPipeline executes plan/fetch/persist for an arbitrary set of keywords
// scoped to the given products, and returns results keyed by product id.
func (c *Coordinator) runPipeline(ctx context.Context, products []*domain.CatalogProduct, keywords []domain.Keyword) (map[int64][]KeywordResult, error) {
	productByID := make(map[int64]*domain.CatalogProduct, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	// Plan: dedup by (lowercase-trimmed text, sort_mode).
	buckets := map[domain.DedupKey][]domain.Keyword{}
	for _, k := range keywords {
		key := domain.DedupKey{Text: strings.ToLower(strings.TrimSpace(k.Text)), SortMode: k.SortMode}
		buckets[key] = append(buckets[key], k)
	}

	type ovr struct {
		blacklisted   map[string]struct{}
		included      map[string]struct{}
		ownListingIDs map[string]struct{}
		ownStoreLabel string
	}
	overridesByProduct := make(map[int64]ovr, len(productByID))
	labelByTenant := map[int64]string{}
	for id, product := range productByID {
		blacklisted, err := c.store.BlacklistedListingIDs(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("crawl: load blacklist: %w", err)
		}
		included, err := c.store.IncludedListingIDs(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("crawl: load include overrides: %w", err)
		}
		own := map[string]struct{}{}
		if product.OwnListingID != "" {
			own[product.OwnListingID] = struct{}{}
		}
		label, ok := labelByTenant[product.TenantID]
		if !ok {
			tenant, err := c.store.GetTenant(ctx, product.TenantID)
			if err != nil {
				return nil, fmt.Errorf("crawl: load tenant for label: %w", err)
			}
			label = tenant.OwnStoreLabel
			labelByTenant[product.TenantID] = label
		}
		overridesByProduct[id] = ovr{blacklisted: blacklisted, included: included, ownListingIDs: own, ownStoreLabel: label}
	}

	// Fetch: bounded parallel, per distinct bucket.
	fetchResults := make(map[domain.DedupKey]fetchOutcome, len(buckets))
	var fetchMu sync.Mutex
	bucketKeys := make([]domain.DedupKey, 0, len(buckets))
	for k := range buckets {
		bucketKeys = append(bucketKeys, k)
	}

	enricher := marketplace.NewEnricher(c.client, int64(c.cfg.ShippingConcurrency), c.log)

	sem := semaphore.NewWeighted(int64(c.cfg.Concurrency))
	group, groupCtx := errgroup.WithContext(ctx)
	for _, key := range bucketKeys {
		key := key
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			outcome := c.fetchBucket(groupCtx, key, enricher)
			fetchMu.Lock()
			fetchResults[key] = outcome
			fetchMu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	// Persist: strictly sequential, one transaction per keyword.
	results := make(map[int64][]KeywordResult, len(productByID))
	touchedProducts := map[int64]struct{}{}
	for _, key := range bucketKeys {
		outcome := fetchResults[key]
		for _, k := range buckets[key] {
			ov := overridesByProduct[k.ProductID]
			result := c.persistKeyword(ctx, k, outcome, productByID[k.ProductID], ov.blacklisted, ov.included, ov.ownListingIDs, ov.ownStoreLabel)
			results[k.ProductID] = append(results[k.ProductID], result)
			touchedProducts[k.ProductID] = struct{}{}
		}
	}

	for productID := range touchedProducts {
		product := productByID[productID]
		activeKeywords, err := c.store.ListKeywordsByProduct(ctx, productID, true)
		if err != nil {
			c.log.Warn("crawl: reload keywords for alert check failed", zap.Int64("product_id", productID), zap.Error(err))
			continue
		}
		if err := c.alerts.CheckAfterPersist(ctx, product, activeKeywords); err != nil {
			c.log.Warn("crawl: alert check failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}

	return results, nil
}

func (c *Coordinator) fetchBucket(ctx context.Context, key domain.DedupKey, enricher *marketplace.Enricher) fetchOutcome {
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		select {
		case <-time.After(c.jitter()):
		case <-ctx.Done():
			return fetchOutcome{err: ctx.Err(), duration: time.Since(start)}
		}

		searchCtx, cancel := context.WithTimeout(ctx, c.cfg.APITimeout)
		result := c.client.Search(searchCtx, key.Text, string(key.SortMode))
		cancel()

		if result.Error != nil {
			lastErr = result.Error
			c.log.Warn("crawl: fetch attempt failed",
				zap.String("keyword", key.Text), zap.Int("attempt", attempt+1), zap.Error(result.Error))
			continue
		}

		shipCtx, shipCancel := context.WithTimeout(ctx, c.cfg.ShippingTimeout)
		enricher.Enrich(shipCtx, result.Listings)
		shipCancel()

		return fetchOutcome{listings: result.Listings, duration: time.Since(start)}
	}
	return fetchOutcome{err: lastErr, duration: time.Since(start)}
}

func (c *Coordinator) persistKeyword(
	ctx context.Context,
	k domain.Keyword,
	outcome fetchOutcome,
	product *domain.CatalogProduct,
	blacklisted, included, ownListingIDs map[string]struct{},
	ownStoreLabel string,
) KeywordResult {
	result := KeywordResult{KeywordID: k.ID, DurationMS: outcome.duration.Milliseconds()}
	defer func() {
		status := string(result.Status)
		metrics.CrawlKeywordsTotal.WithLabelValues(status).Inc()
		metrics.CrawlKeywordDuration.WithLabelValues(status).Observe(float64(result.DurationMS) / 1000)
	}()

	if outcome.err != nil {
		result.Status = domain.CrawlStatusFailed
		result.Error = outcome.err.Error()
		c.writeFailureLog(ctx, k.ID, result)
		return result
	}

	tx, err := c.store.DB().BeginTx(ctx, nil)
	if err != nil {
		result.Status = domain.CrawlStatusFailed
		result.Error = err.Error()
		return result
	}
	// Registered before the rollback so it runs after the rollback has
	// released the store's single connection.
	defer func() {
		if result.Status == domain.CrawlStatusFailed {
			c.writeFailureLog(ctx, k.ID, result)
		}
	}()
	defer tx.Rollback()

	in := relevance.Input{Blacklisted: blacklisted, IncludedOverride: included, OwnListingIDs: ownListingIDs}
	now := time.Now().UTC()
	var newSellingPrice int64
	var applyPriceUpdate bool

	for _, listing := range outcome.listings {
		verdict := relevance.Classify(listing, product, in)
		ranking := &domain.Ranking{
			KeywordID:       k.ID,
			CrawledAt:       now,
			Rank:            listing.Rank,
			Title:           listing.Title,
			Price:           listing.Price,
			Mall:            listing.MallName,
			ListingID:       listing.ListingID,
			ShippingFee:     listing.ShippingFee,
			ShippingFeeType: listing.ShippingFeeType,
			Brand:           listing.Brand,
			Maker:           listing.Maker,
			Category1:       listing.Category1,
			Category2:       listing.Category2,
			Category3:       listing.Category3,
			Category4:       listing.Category4,
			IsOwnStore:      isOwnStore(listing, product, ownStoreLabel),
			IsRelevant:      verdict.Relevant,
			RelevanceReason: verdict.Reason,
		}
		if err := c.store.InsertRanking(ctx, tx, ranking); err != nil {
			result.Status = domain.CrawlStatusFailed
			result.Error = err.Error()
			c.log.Warn("crawl: insert ranking failed", zap.Int64("keyword_id", k.ID), zap.Error(err))
			return result
		}

		if price, apply := relevance.OwnPriceUpdate(verdict, listing, product); apply {
			newSellingPrice = price
			applyPriceUpdate = true
		}
	}

	if err := c.store.MarkKeywordCrawled(ctx, tx, k.ID, now, domain.KeywordSuccess); err != nil {
		result.Status = domain.CrawlStatusFailed
		result.Error = err.Error()
		return result
	}
	if err := c.store.InsertCrawlLog(ctx, tx, &domain.CrawlLog{
		KeywordID: k.ID, Status: domain.CrawlStatusSuccess, DurationMS: result.DurationMS,
	}); err != nil {
		result.Status = domain.CrawlStatusFailed
		result.Error = err.Error()
		return result
	}

	if err := tx.Commit(); err != nil {
		result.Status = domain.CrawlStatusFailed
		result.Error = err.Error()
		return result
	}

	if applyPriceUpdate {
		if err := c.store.UpdateSellingPrice(ctx, product.ID, newSellingPrice); err != nil {
			c.log.Warn("crawl: own-price auto-update failed", zap.Int64("product_id", product.ID), zap.Error(err))
		} else {
			product.SellingPrice = newSellingPrice
		}
	}

	result.Status = domain.CrawlStatusSuccess
	return result
}

func (c *Coordinator) writeFailureLog(ctx context.Context, keywordID int64, result KeywordResult) {
	tx, err := c.store.DB().BeginTx(ctx, nil)
	if err != nil {
		c.log.Warn("crawl: begin failure log tx failed", zap.Error(err))
		return
	}
	defer tx.Rollback()

	if err := c.store.MarkKeywordCrawled(ctx, tx, keywordID, time.Now().UTC(), domain.KeywordFailed); err != nil {
		c.log.Warn("crawl: mark keyword failed failed", zap.Error(err))
		return
	}
	if err := c.store.InsertCrawlLog(ctx, tx, &domain.CrawlLog{
		KeywordID: keywordID, Status: domain.CrawlStatusFailed, Error: result.Error, DurationMS: result.DurationMS,
	}); err != nil {
		c.log.Warn("crawl: insert failure crawl log failed", zap.Error(err))
		return
	}
	if err := tx.Commit(); err != nil {
		c.log.Warn("crawl: commit failure log failed", zap.Error(err))
	}
}

// isOwnStore tags a listing as the tenant's own: listing_id match is the
// strong signal, mall-name match against own_store_label is the fallback
// when no listing_id is registered.
func isOwnStore(listing marketplace.Listing, product *domain.CatalogProduct, ownStoreLabel string) bool {
	if product.OwnListingID != "" && listing.ListingID == product.OwnListingID {
		return true
	}
	if product.OwnListingID == "" && ownStoreLabel != "" && listing.MallName == ownStoreLabel {
		return true
	}
	return false
}
