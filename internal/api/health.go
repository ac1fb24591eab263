package api

import (
	"net/http"
)

type healthChecks struct {
	Database        string `json:"database"`
	LastCrawlAt     string `json:"last_crawl_at"`
	Scheduler       string `json:"scheduler"`
	CrawlMetrics24h string `json:"crawl_metrics_24h"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Checks healthChecks `json:"checks"`
}

// handleHealth reports database reachability, the newest last-crawl
// timestamp across all tenants, whether the scheduler is configured to run, and the trailing
// 24h crawl success/failure split.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := healthChecks{Database: "ok", Scheduler: "ok", LastCrawlAt: "unknown", CrawlMetrics24h: "ok"}
	status := "healthy"

	if err := s.store.DB().PingContext(ctx); err != nil {
		checks.Database = "unreachable"
		writeJSONStatus(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Checks: checks})
		return
	}

	if s.cfg.SchedulerCheckInterval <= 0 {
		checks.Scheduler = "disabled"
		status = "degraded"
	}

	if tenants, err := s.store.ListTenants(ctx); err == nil {
		var newest string
		for _, t := range tenants {
			if last, ok, err := s.store.LastCrawledAt(ctx, t.ID); err == nil && ok {
				ts := last.UTC().Format("2006-01-02T15:04:05Z")
				if ts > newest {
					newest = ts
				}
			}
		}
		if newest != "" {
			checks.LastCrawlAt = newest
		} else {
			status = "degraded"
		}
	}

	metrics, err := s.store.CrawlMetrics24h(ctx)
	if err == nil && metrics.Total > 0 && metrics.Failed == metrics.Total {
		checks.CrawlMetrics24h = "all_failed"
		status = "degraded"
	}

	writeJSON(w, healthResponse{Status: status, Checks: checks})
}
