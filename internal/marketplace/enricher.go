package marketplace

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"marketguard/internal/domain"
	"marketguard/internal/metrics"
)

// Enricher fills in shipping fee/type on listings for one crawl run. A new
// Enricher is built by the coordinator per crawl_product/crawl_tenant
// invocation and discarded at the end of the run; its memo is never shared
// across runs.
type Enricher struct {
	client *Client
	sem    *semaphore.Weighted
	log    *zap.Logger

	mu   sync.Mutex
	memo map[string]memoEntry

	// group collapses concurrent fetchOne calls for the same listing ID
	// within the run, across concurrent Enrich calls, into a single network
	// request.
	group singleflight.Group

	paid    int
	free    int
	unknown int
	errored int
}

type memoEntry struct {
	fee     int64
	feeType domain.ShippingFeeType
}

// NewEnricher builds an Enricher bounded by concurrency concurrent page
// fetches.
func NewEnricher(client *Client, concurrency int64, log *zap.Logger) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{
		client: client,
		sem:    semaphore.NewWeighted(concurrency),
		log:    log,
		memo:   make(map[string]memoEntry),
	}
}

// Enrich sets ShippingFee/ShippingFeeType on every listing with a non-empty
// ListingID, consulting and updating the per-run memo.
func (e *Enricher) Enrich(ctx context.Context, listings []Listing) {
	var wg sync.WaitGroup
	for i := range listings {
		if listings[i].ListingID == "" {
			continue
		}
		if entry, ok := e.lookup(listings[i].ListingID); ok {
			listings[i].ShippingFee = entry.fee
			listings[i].ShippingFeeType = entry.feeType
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := e.sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer e.sem.Release(1)
			e.fetchOne(ctx, &listings[idx])
		}(i)
	}
	wg.Wait()
	e.logSummary()
}

// fetchOne resolves shipping for listing, collapsing concurrent calls for
// the same listing ID (two keyword buckets surfacing the same product) into
// a single fetch via singleflight.
func (e *Enricher) fetchOne(ctx context.Context, listing *Listing) {
	result, _, _ := e.group.Do(listing.ListingID, func() (any, error) {
		return e.resolveShipping(ctx, listing.Link, listing.ListingID), nil
	})
	entry := result.(memoEntry)

	listing.ShippingFee = entry.fee
	listing.ShippingFeeType = entry.feeType
	e.record(entry.feeType)

	// Only paid/free are memoized: unknown and error are deliberately left
	// out so a later keyword in the same run gets another attempt.
	if entry.feeType == domain.ShippingPaid || entry.feeType == domain.ShippingFree {
		e.mu.Lock()
		e.memo[listing.ListingID] = entry
		e.mu.Unlock()
	}
}

func (e *Enricher) resolveShipping(ctx context.Context, link, listingID string) memoEntry {
	fee, feeType, err := e.client.FetchShipping(ctx, link)
	if err != nil {
		e.log.Warn("shipping fetch failed", zap.String("listing_id", listingID), zap.Error(err))
		feeType = domain.ShippingError
	}

	if feeType == domain.ShippingError {
		jitter := time.Duration(200+rand.Intn(200)) * time.Millisecond
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
			return memoEntry{feeType: domain.ShippingError}
		}
		fee, feeType, err = e.client.FetchShipping(ctx, link)
		if err != nil {
			feeType = domain.ShippingError
		}
	}

	return memoEntry{fee: fee, feeType: feeType}
}

func (e *Enricher) lookup(listingID string) (memoEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.memo[listingID]
	return entry, ok
}

func (e *Enricher) record(feeType domain.ShippingFeeType) {
	metrics.ShippingEnrichmentTotal.WithLabelValues(string(feeType)).Inc()

	e.mu.Lock()
	defer e.mu.Unlock()
	switch feeType {
	case domain.ShippingPaid:
		e.paid++
	case domain.ShippingFree:
		e.free++
	case domain.ShippingUnknown:
		e.unknown++
	default:
		e.errored++
	}
}

func (e *Enricher) logSummary() {
	e.mu.Lock()
	paid, free, unknown, errored := e.paid, e.free, e.unknown, e.errored
	e.mu.Unlock()
	e.log.Info("shipping enrichment complete",
		zap.Int("paid", paid), zap.Int("free", free),
		zap.Int("unknown", unknown), zap.Int("error", errored))
}
