// Package metrics holds the Prometheus collectors exposed on /metrics. The
// /health endpoint's crawl_metrics_24h check reads crawl_logs through the
// store, not these collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var CrawlKeywordsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marketguard",
		Subsystem: "crawl",
		Name:      "keywords_total",
		Help:      "Total number of keyword crawl attempts by outcome.",
	},
	[]string{"status"},
)

var CrawlKeywordDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "marketguard",
		Subsystem: "crawl",
		Name:      "keyword_duration_seconds",
		Help:      "Per-keyword fetch+persist duration in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
	},
	[]string{"status"},
)

var CrawlRunsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marketguard",
		Subsystem: "crawl",
		Name:      "runs_total",
		Help:      "Total number of CrawlProduct/CrawlTenant invocations by outcome.",
	},
	[]string{"scope", "outcome"},
)

var ShippingEnrichmentTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marketguard",
		Subsystem: "shipping",
		Name:      "enrichment_total",
		Help:      "Total number of shipping fee lookups by result.",
	},
	[]string{"result"},
)

var AlertsEmittedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marketguard",
		Subsystem: "alerts",
		Name:      "emitted_total",
		Help:      "Total number of alerts emitted by kind.",
	},
	[]string{"kind"},
)

var PushDeliveryTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "marketguard",
		Subsystem: "push",
		Name:      "delivery_total",
		Help:      "Total number of push delivery attempts by outcome.",
	},
	[]string{"outcome"},
)

// All returns every marketguard collector for registration against a
// dedicated prometheus.Registry (the default global registry is not used,
// so tests can construct isolated registries per case).
func All() []prometheus.Collector {
	return []prometheus.Collector{
		CrawlKeywordsTotal,
		CrawlKeywordDuration,
		CrawlRunsTotal,
		ShippingEnrichmentTotal,
		AlertsEmittedTotal,
		PushDeliveryTotal,
	}
}

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// Registry returns the process-wide registry with every collector in All()
// registered exactly once, for mounting on the /metrics endpoint.
func Registry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		for _, c := range All() {
			registry.MustRegister(c)
		}
	})
	return registry
}
