package relevance

import (
	"testing"

	"marketguard/internal/domain"
	"marketguard/internal/marketplace"
)

func baseProduct() *domain.CatalogProduct {
	return &domain.CatalogProduct{SellingPrice: 10000}
}

func TestClassify_Blacklisted(t *testing.T) {
	listing := marketplace.Listing{ListingID: "L1", Price: 9000}
	in := Input{Blacklisted: map[string]struct{}{"L1": {}}}
	v := Classify(listing, baseProduct(), in)
	if v.Relevant || v.Reason != domain.ReasonManualBlacklist {
		t.Errorf("got %+v, want blacklisted/irrelevant", v)
	}
}

func TestClassify_OwnListing(t *testing.T) {
	listing := marketplace.Listing{ListingID: "L1", Price: 9000}
	in := Input{OwnListingIDs: map[string]struct{}{"L1": {}}}
	v := Classify(listing, baseProduct(), in)
	if v.Relevant || v.Reason != domain.ReasonMyProduct {
		t.Errorf("got %+v, want my_product/irrelevant", v)
	}
}

func TestClassify_IncludedOverrideBeatsPriceFilter(t *testing.T) {
	product := baseProduct()
	product.PriceFilterMinPct = 90 // floor = 9000, listing total below it
	listing := marketplace.Listing{ListingID: "L1", Price: 1000}
	in := Input{IncludedOverride: map[string]struct{}{"L1": {}}}
	v := Classify(listing, product, in)
	if !v.Relevant || v.Reason != domain.ReasonIncludedOverride {
		t.Errorf("got %+v, want included_override/relevant", v)
	}
}

func TestClassify_PriceFilterMin(t *testing.T) {
	product := baseProduct()
	product.PriceFilterMinPct = 90 // floor = 9000
	listing := marketplace.Listing{ListingID: "L1", Price: 5000}
	v := Classify(listing, product, Input{})
	if v.Relevant || v.Reason != domain.ReasonPriceFilterMin {
		t.Errorf("got %+v, want price_filter_min/irrelevant", v)
	}
}

func TestClassify_PriceFilterMax(t *testing.T) {
	product := baseProduct()
	product.PriceFilterMaxPct = 110 // ceiling = 11000
	listing := marketplace.Listing{ListingID: "L1", Price: 20000}
	v := Classify(listing, product, Input{})
	if v.Relevant || v.Reason != domain.ReasonPriceFilterMax {
		t.Errorf("got %+v, want price_filter_max/irrelevant", v)
	}
}

func TestClassify_ModelCode(t *testing.T) {
	product := baseProduct()
	product.ModelCode = "XG-500"
	listing := marketplace.Listing{ListingID: "L1", Price: 5000, Title: "wireless mouse"}
	v := Classify(listing, product, Input{})
	if v.Relevant || v.Reason != domain.ReasonModelCode {
		t.Errorf("got %+v, want model_code/irrelevant", v)
	}

	listing.Title = "XG-500 wireless mouse"
	v = Classify(listing, product, Input{})
	if !v.Relevant {
		t.Errorf("got %+v, want relevant when model code present", v)
	}
}

func TestClassify_SpecKeywords(t *testing.T) {
	product := baseProduct()
	product.SpecKeywords = []string{"wireless", "bluetooth"}
	listing := marketplace.Listing{ListingID: "L1", Price: 5000, Title: "wireless mouse"}
	v := Classify(listing, product, Input{})
	if v.Relevant || v.Reason != domain.ReasonSpecKeywords {
		t.Errorf("got %+v, want spec_keywords/irrelevant", v)
	}

	listing.Title = "wireless bluetooth mouse"
	v = Classify(listing, product, Input{})
	if !v.Relevant {
		t.Errorf("got %+v, want relevant when all spec keywords present", v)
	}
}

func TestClassify_RelevantByDefault(t *testing.T) {
	listing := marketplace.Listing{ListingID: "L1", Price: 5000, Title: "generic listing"}
	v := Classify(listing, baseProduct(), Input{})
	if !v.Relevant || v.Reason != "" {
		t.Errorf("got %+v, want relevant with empty reason", v)
	}
}

func TestOwnPriceUpdate(t *testing.T) {
	product := baseProduct()
	listing := marketplace.Listing{ListingID: "L1", Price: 9500}

	if _, apply := OwnPriceUpdate(Verdict{Reason: domain.ReasonMyProduct}, listing, product); !apply {
		t.Error("want apply=true when own listing price differs")
	}
	if _, apply := OwnPriceUpdate(Verdict{Reason: domain.ReasonMyProduct}, marketplace.Listing{Price: 10000}, product); apply {
		t.Error("want apply=false when price unchanged")
	}
	if _, apply := OwnPriceUpdate(Verdict{Reason: domain.ReasonMyProduct}, marketplace.Listing{Price: 0}, product); apply {
		t.Error("want apply=false when price is zero")
	}
	if _, apply := OwnPriceUpdate(Verdict{Reason: domain.ReasonManualBlacklist}, listing, product); apply {
		t.Error("want apply=false for non-my_product verdicts")
	}
}
