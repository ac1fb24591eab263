// Package relevance decides whether a marketplace listing competes with a
// tenant's catalog product. The classifier is a pure function: the same
// inputs always produce the same verdict, in the same check order.
package relevance

import (
	"strings"

	"marketguard/internal/domain"
	"marketguard/internal/marketplace"
)

// Input bundles everything the classifier needs beyond the listing and
// product themselves: the per-product override sets the crawl coordinator
// preloads in its plan phase.
type Input struct {
	Blacklisted      map[string]struct{}
	IncludedOverride map[string]struct{}
	OwnListingIDs    map[string]struct{}
}

// Verdict is the classifier's total output.
type Verdict struct {
	Relevant bool
	Reason   domain.RelevanceReason
}

// Classify runs the seven-step decision order against one listing for one
// product. First match wins.
func Classify(listing marketplace.Listing, product *domain.CatalogProduct, in Input) Verdict {
	if _, ok := in.Blacklisted[listing.ListingID]; ok {
		return Verdict{Relevant: false, Reason: domain.ReasonManualBlacklist}
	}

	if _, ok := in.OwnListingIDs[listing.ListingID]; ok {
		return Verdict{Relevant: false, Reason: domain.ReasonMyProduct}
	}

	if _, ok := in.IncludedOverride[listing.ListingID]; ok {
		return Verdict{Relevant: true, Reason: domain.ReasonIncludedOverride}
	}

	total := listing.Price + listing.ShippingFee
	if product.HasPriceFilterMin() {
		floor := float64(product.SellingPrice) * product.PriceFilterMinPct / 100
		if float64(total) < floor {
			return Verdict{Relevant: false, Reason: domain.ReasonPriceFilterMin}
		}
	}
	if product.HasPriceFilterMax() {
		ceiling := float64(product.SellingPrice) * product.PriceFilterMaxPct / 100
		if float64(total) > ceiling {
			return Verdict{Relevant: false, Reason: domain.ReasonPriceFilterMax}
		}
	}

	if product.ModelCode != "" && !strings.Contains(strings.ToLower(listing.Title), strings.ToLower(product.ModelCode)) {
		return Verdict{Relevant: false, Reason: domain.ReasonModelCode}
	}

	for _, kw := range product.SpecKeywords {
		if kw == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(listing.Title), strings.ToLower(kw)) {
			return Verdict{Relevant: false, Reason: domain.ReasonSpecKeywords}
		}
	}

	return Verdict{Relevant: true}
}

// OwnPriceUpdate reports whether the "my_product" side effect (§4.C) should
// fire: the listing is the product's own listing, its price is non-zero,
// and it differs from the product's current selling price. This is a pure
// decision; applying it is the persist phase's job.
func OwnPriceUpdate(verdict Verdict, listing marketplace.Listing, product *domain.CatalogProduct) (newPrice int64, apply bool) {
	if verdict.Reason != domain.ReasonMyProduct {
		return 0, false
	}
	if listing.Price == 0 || listing.Price == product.SellingPrice {
		return 0, false
	}
	return listing.Price, true
}
