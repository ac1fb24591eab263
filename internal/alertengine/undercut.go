package alertengine

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"marketguard/internal/domain"
)

// checkUndercut finds the cheapest relevant, non-blacklisted competitor
// across the product's latest rankings and alerts if it undercuts the
// product's selling price, subject to the 24h unread dedup window.
func (e *Engine) checkUndercut(ctx context.Context, product *domain.CatalogProduct, keywords []domain.Keyword) error {
	if !e.settingEnabled(ctx, product.TenantID, domain.AlertPriceUndercut) {
		return nil
	}

	keywordIDs := make([]int64, len(keywords))
	for i, k := range keywords {
		keywordIDs[i] = k.ID
	}
	latest, err := e.store.LatestRankingsByKeyword(ctx, keywordIDs)
	if err != nil {
		return fmt.Errorf("undercut: latest rankings: %w", err)
	}

	var cheapest *domain.Ranking
	for _, rankings := range latest {
		for i := range rankings {
			r := &rankings[i]
			if !r.IsRelevant {
				continue
			}
			total := r.Price + r.ShippingFee
			if cheapest == nil || total < cheapest.Price+cheapest.ShippingFee {
				cheapest = r
			}
		}
	}
	if cheapest == nil {
		return nil
	}

	total := cheapest.Price + cheapest.ShippingFee
	if total >= product.SellingPrice {
		return nil
	}

	since := time.Now().Add(-e.cfg.AlertDedupWindow)
	recent, err := e.store.HasRecentAlert(ctx, product.ID, domain.AlertPriceUndercut, since)
	if err != nil {
		return fmt.Errorf("undercut: dedup check: %w", err)
	}
	if recent {
		return nil
	}

	gap := product.SellingPrice - total
	gapPct := 0.0
	if product.SellingPrice > 0 {
		gapPct = float64(gap) / float64(product.SellingPrice) * 100
	}

	title := fmt.Sprintf("%s: price undercut", product.Name)
	body := fmt.Sprintf("%s is selling for %s (you: %s, gap %s / %.1f%%)",
		cheapest.Mall, humanize.Comma(total), humanize.Comma(product.SellingPrice), humanize.Comma(gap), gapPct)

	payload := map[string]any{
		"competitor_mall":  cheapest.Mall,
		"competitor_total": total,
		"gap":              gap,
		"gap_pct":          gapPct,
		"listing_id":       cheapest.ListingID,
	}
	return e.emit(ctx, product, domain.AlertPriceUndercut, title, body, payload)
}
