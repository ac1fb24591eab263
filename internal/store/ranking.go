package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketguard/internal/domain"
)

// InsertRanking writes one ranking row inside an existing per-keyword
// transaction (§4.E persist phase, one commit per keyword).
func (s *Store) InsertRanking(ctx context.Context, tx *sql.Tx, r *domain.Ranking) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rankings
			(keyword_id, crawled_at, rank, title, price, mall, listing_id, shipping_fee,
			 shipping_fee_type, brand, maker, category1, category2, category3, category4,
			 is_own_store, is_relevant, relevance_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.KeywordID, r.CrawledAt.UTC().Format("2006-01-02T15:04:05.000Z"), r.Rank, r.Title, r.Price,
		r.Mall, r.ListingID, r.ShippingFee, string(r.ShippingFeeType), r.Brand, r.Maker,
		r.Category1, r.Category2, r.Category3, r.Category4,
		boolToInt(r.IsOwnStore), boolToInt(r.IsRelevant), string(r.RelevanceReason))
	if err != nil {
		return fmt.Errorf("store: insert ranking: %w", err)
	}
	return nil
}

// LatestRankingsByKeyword returns, for each keyword id, every ranking row
// from that keyword's most recent crawled_at instant. This is the undercut
// check's (§4.F) and the CSV export's read path.
func (s *Store) LatestRankingsByKeyword(ctx context.Context, keywordIDs []int64) (map[int64][]domain.Ranking, error) {
	out := make(map[int64][]domain.Ranking, len(keywordIDs))
	if len(keywordIDs) == 0 {
		return out, nil
	}
	placeholders, args := inClause(keywordIDs)
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.keyword_id, r.crawled_at, r.rank, r.title, r.price, r.mall, r.listing_id,
		       r.shipping_fee, r.shipping_fee_type, r.brand, r.maker,
		       r.category1, r.category2, r.category3, r.category4,
		       r.is_own_store, r.is_relevant, r.relevance_reason
		FROM rankings r
		JOIN (
			SELECT keyword_id, MAX(crawled_at) AS max_crawled_at
			FROM rankings
			WHERE keyword_id IN (`+placeholders+`)
			GROUP BY keyword_id
		) latest ON latest.keyword_id = r.keyword_id AND latest.max_crawled_at = r.crawled_at
		WHERE r.keyword_id IN (`+placeholders+`)`, append(append([]any{}, args...), args...)...)
	if err != nil {
		return nil, fmt.Errorf("store: latest rankings by keyword: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRankingRow(rows)
		if err != nil {
			return nil, err
		}
		out[r.KeywordID] = append(out[r.KeywordID], r)
	}
	return out, rows.Err()
}

// SparklinePoint is one day's cheapest total price for a keyword, used to
// render the dashboard's price trend.
type SparklinePoint struct {
	Day          string `json:"day"`
	MinTotalCost int64  `json:"min_total_cost"`
}

// Sparkline returns the per-day minimum (price + shipping_fee) for a
// keyword over the trailing window, one point per calendar day that has
// at least one crawl.
func (s *Store) Sparkline(ctx context.Context, keywordID int64, since time.Time) ([]SparklinePoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(crawled_at, 1, 10) AS day, MIN(price + shipping_fee) AS min_total
		FROM rankings
		WHERE keyword_id = ? AND crawled_at >= ? AND is_relevant = 1
		GROUP BY day
		ORDER BY day ASC`,
		keywordID, since.UTC().Format("2006-01-02T15:04:05.000Z"))
	if err != nil {
		return nil, fmt.Errorf("store: sparkline: %w", err)
	}
	defer rows.Close()

	var out []SparklinePoint
	for rows.Next() {
		var p SparklinePoint
		if err := rows.Scan(&p.Day, &p.MinTotalCost); err != nil {
			return nil, fmt.Errorf("store: scan sparkline point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RankChange is the rank-drop detector's input: an own-store listing's rank
// at the two most recent distinct crawled_at instants within the window.
type RankChange struct {
	ListingID    string
	KeywordID    int64
	PreviousRank int
	PreviousAt   time.Time
	CurrentRank  int
	CurrentAt    time.Time
}

// RankChangeWindow returns, per own-store listing_id appearing under
// keywordID within the last `days` days, the rank at the two most recent
// distinct crawled_at instants (§4.F rank_drop: "min(rank) at the two most
// recent distinct crawled_at instants").
func (s *Store) RankChangeWindow(ctx context.Context, keywordID int64, days int) ([]RankChange, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format("2006-01-02T15:04:05.000Z")
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT listing_id FROM rankings
		WHERE keyword_id = ? AND is_own_store = 1 AND crawled_at >= ?`, keywordID, since)
	if err != nil {
		return nil, fmt.Errorf("store: rank change listings: %w", err)
	}
	var listingIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan listing id: %w", err)
		}
		listingIDs = append(listingIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []RankChange
	for _, listingID := range listingIDs {
		instantRows, err := s.db.QueryContext(ctx, `
			SELECT crawled_at, MIN(rank)
			FROM rankings
			WHERE keyword_id = ? AND listing_id = ? AND is_own_store = 1 AND crawled_at >= ?
			GROUP BY crawled_at
			ORDER BY crawled_at DESC
			LIMIT 2`, keywordID, listingID, since)
		if err != nil {
			return nil, fmt.Errorf("store: rank change instants: %w", err)
		}
		type instant struct {
			at   time.Time
			rank int
		}
		var instants []instant
		for instantRows.Next() {
			var atStr string
			var rank int
			if err := instantRows.Scan(&atStr, &rank); err != nil {
				instantRows.Close()
				return nil, fmt.Errorf("store: scan rank instant: %w", err)
			}
			instants = append(instants, instant{at: parseTime(atStr), rank: rank})
		}
		instantRows.Close()
		if err := instantRows.Err(); err != nil {
			return nil, err
		}
		if len(instants) < 2 {
			continue
		}
		out = append(out, RankChange{
			ListingID:    listingID,
			KeywordID:    keywordID,
			CurrentRank:  instants[0].rank,
			CurrentAt:    instants[0].at,
			PreviousRank: instants[1].rank,
			PreviousAt:   instants[1].at,
		})
	}
	return out, nil
}

// DistinctBrandsAndCategories feeds the keyword generator's DB-derived
// dictionary (§4.D): brand and maker unioned into one brand set,
// category1 through category4 unioned into one category set, across every
// relevant ranking seen for a tenant's products, deduplicated.
func (s *Store) DistinctBrandsAndCategories(ctx context.Context, tenantID int64) (brands, categories []string, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT r.brand, r.maker, r.category1, r.category2, r.category3, r.category4
		FROM rankings r
		JOIN keywords k ON k.id = r.keyword_id
		JOIN catalog_products p ON p.id = k.product_id
		WHERE p.tenant_id = ? AND r.is_relevant = 1`, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("store: distinct brands and categories: %w", err)
	}
	defer rows.Close()

	brandSet := map[string]struct{}{}
	categorySet := map[string]struct{}{}
	for rows.Next() {
		var brand, maker, category1, category2, category3, category4 string
		if err := rows.Scan(&brand, &maker, &category1, &category2, &category3, &category4); err != nil {
			return nil, nil, fmt.Errorf("store: scan brand/category: %w", err)
		}
		for _, b := range []string{brand, maker} {
			if b != "" {
				brandSet[b] = struct{}{}
			}
		}
		for _, c := range []string{category1, category2, category3, category4} {
			if c != "" {
				categorySet[c] = struct{}{}
			}
		}
	}
	for b := range brandSet {
		brands = append(brands, b)
	}
	for c := range categorySet {
		categories = append(categories, c)
	}
	return brands, categories, rows.Err()
}

func scanRankingRow(rows *sql.Rows) (domain.Ranking, error) {
	var r domain.Ranking
	var crawledAt string
	var isOwnStore, isRelevant int
	if err := rows.Scan(&r.ID, &r.KeywordID, &crawledAt, &r.Rank, &r.Title, &r.Price, &r.Mall, &r.ListingID,
		&r.ShippingFee, &r.ShippingFeeType, &r.Brand, &r.Maker,
		&r.Category1, &r.Category2, &r.Category3, &r.Category4,
		&isOwnStore, &isRelevant, &r.RelevanceReason); err != nil {
		return domain.Ranking{}, fmt.Errorf("store: scan ranking: %w", err)
	}
	r.CrawledAt = parseTime(crawledAt)
	r.IsOwnStore = isOwnStore != 0
	r.IsRelevant = isRelevant != 0
	return r, nil
}

// DeleteOldRankings removes up to limit rows older than cutoff in one
// transaction, returning how many rows were deleted.
func (s *Store) DeleteOldRankings(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM rankings WHERE id IN (
			SELECT id FROM rankings WHERE crawled_at < ? ORDER BY id LIMIT ?
		)`, cutoff.UTC().Format("2006-01-02T15:04:05.000Z"), limit)
	if err != nil {
		return 0, fmt.Errorf("store: delete old rankings: %w", err)
	}
	return res.RowsAffected()
}
