package api

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"marketguard/internal/domain"
)

var exportColumns = []string{
	"name", "category", "selling_price", "lowest_total", "gap", "gap_pct",
	"rank", "margin", "margin_pct", "status", "price_locked",
}

// handleExportCSV streams a one-row-per-product snapshot of the product's
// latest rankings: the cheapest relevant competitor total, the gap to the
// product's own selling price, its best own-store rank, and margin after
// cost items, in the fixed column order the spreadsheet import expects.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	ctx := r.Context()

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	keywords, err := s.store.ListKeywordsByProduct(ctx, productID, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load keywords failed")
		return
	}
	costItems, err := s.store.ListCostItemsByProduct(ctx, productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load cost items failed")
		return
	}

	keywordIDs := make([]int64, len(keywords))
	for i, k := range keywords {
		keywordIDs[i] = k.ID
	}
	latest, err := s.store.LatestRankingsByKeyword(ctx, keywordIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load rankings failed")
		return
	}

	var cheapest *domain.Ranking
	bestRank := 0
	for _, rankings := range latest {
		for i := range rankings {
			rk := &rankings[i]
			if rk.IsOwnStore && (bestRank == 0 || rk.Rank < bestRank) {
				bestRank = rk.Rank
			}
			if !rk.IsRelevant || rk.IsOwnStore {
				continue
			}
			total := rk.Price + rk.ShippingFee
			if cheapest == nil || total < cheapest.Price+cheapest.ShippingFee {
				cheapest = rk
			}
		}
	}

	var lowestTotal, gap int64
	gapPct := 0.0
	status := "no_data"
	if cheapest != nil {
		lowestTotal = cheapest.Price + cheapest.ShippingFee
		gap = product.SellingPrice - lowestTotal
		if product.SellingPrice > 0 {
			gapPct = float64(gap) / float64(product.SellingPrice) * 100
		}
		if gap < 0 {
			status = "undercut"
		} else {
			status = "ok"
		}
	}

	margin := product.SellingPrice - product.CostPrice
	for _, c := range costItems {
		switch c.Kind {
		case domain.CostFixed:
			margin -= int64(c.Amount)
		case domain.CostPercent:
			margin -= int64(c.Amount / 100 * float64(product.SellingPrice))
		}
	}
	marginPct := 0.0
	if product.SellingPrice > 0 {
		marginPct = float64(margin) / float64(product.SellingPrice) * 100
	}

	priceLocked := "N"
	if product.PriceLocked {
		priceLocked = "Y"
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="product-%d.csv"`, productID))

	cw := csv.NewWriter(w)
	defer cw.Flush()
	_ = cw.Write(exportColumns)
	_ = cw.Write([]string{
		product.Name,
		product.Category,
		fmt.Sprintf("%d", product.SellingPrice),
		fmt.Sprintf("%d", lowestTotal),
		fmt.Sprintf("%d", gap),
		fmt.Sprintf("%.2f", gapPct),
		fmt.Sprintf("%d", bestRank),
		fmt.Sprintf("%d", margin),
		fmt.Sprintf("%.2f", marginPct),
		status,
		priceLocked,
	})
}
