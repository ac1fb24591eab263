package metrics

import "testing"

func TestRegistry_SingletonAndEmptyBeforeObservation(t *testing.T) {
	reg := Registry()
	if reg != Registry() {
		t.Error("Registry() returned a different instance on a second call")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 0 {
		t.Errorf("len(families) = %d, want 0 before any metric is observed", len(families))
	}
}

func TestAll_MatchesRegisteredCollectorCount(t *testing.T) {
	CrawlKeywordsTotal.WithLabelValues("success").Inc()
	CrawlRunsTotal.WithLabelValues("product", "ok").Inc()
	AlertsEmittedTotal.WithLabelValues("price_undercut").Inc()
	PushDeliveryTotal.WithLabelValues("ok").Inc()
	ShippingEnrichmentTotal.WithLabelValues("hit").Inc()
	CrawlKeywordDuration.WithLabelValues("success").Observe(0.5)

	families, err := Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != len(All()) {
		t.Errorf("len(families) = %d, want %d (one per registered collector)", len(families), len(All()))
	}
}
