package alertengine

import (
	"context"
	"fmt"
	"time"

	"marketguard/internal/domain"
)

const rankDropWindowDays = 7

// checkRankDrop compares, per keyword, the own-store minimum rank at the
// two most recent distinct crawl instants within the trailing window; a
// rise (worse rank) fires an alert, subject to the dedup window.
func (e *Engine) checkRankDrop(ctx context.Context, product *domain.CatalogProduct, keywords []domain.Keyword) error {
	if !e.settingEnabled(ctx, product.TenantID, domain.AlertRankDrop) {
		return nil
	}

	for _, k := range keywords {
		changes, err := e.store.RankChangeWindow(ctx, k.ID, rankDropWindowDays)
		if err != nil {
			return fmt.Errorf("rankdrop: rank change window: %w", err)
		}
		for _, change := range changes {
			if change.CurrentRank <= change.PreviousRank {
				continue
			}

			since := time.Now().Add(-e.cfg.AlertDedupWindow)
			recent, err := e.store.HasRecentAlert(ctx, product.ID, domain.AlertRankDrop, since)
			if err != nil {
				return fmt.Errorf("rankdrop: dedup check: %w", err)
			}
			if recent {
				continue
			}

			title := fmt.Sprintf("%s: rank dropped", product.Name)
			body := fmt.Sprintf("keyword %q: rank %d -> %d", k.Text, change.PreviousRank, change.CurrentRank)
			payload := map[string]any{
				"keyword_id":    k.ID,
				"listing_id":    change.ListingID,
				"previous_rank": change.PreviousRank,
				"current_rank":  change.CurrentRank,
			}
			if err := e.emit(ctx, product, domain.AlertRankDrop, title, body, payload); err != nil {
				return err
			}
		}
	}
	return nil
}
