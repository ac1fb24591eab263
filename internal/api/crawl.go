package api

import (
	"errors"
	"net/http"

	"marketguard/internal/crawl"
)

func (s *Server) handleCrawlProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	summary, err := s.coordinator.CrawlProduct(r.Context(), id)
	if err != nil {
		writeCrawlError(w, err)
		return
	}
	writeJSON(w, summary)
}

func (s *Server) handleCrawlTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	summary, err := s.coordinator.CrawlTenant(r.Context(), id)
	if err != nil {
		writeCrawlError(w, err)
		return
	}
	writeJSON(w, summary)
}

type crawlStatusResponse struct {
	TotalKeywords  int     `json:"total_keywords"`
	Last24hSuccess int     `json:"last_24h_success"`
	Last24hFailed  int     `json:"last_24h_failed"`
	AvgDurationMS  float64 `json:"avg_duration_ms"`
}

func (s *Server) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	m, err := s.store.CrawlMetrics24hByTenant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "crawl status failed")
		return
	}
	writeJSON(w, crawlStatusResponse{
		TotalKeywords:  m.TotalKeywords,
		Last24hSuccess: m.Success24h,
		Last24hFailed:  m.Failed24h,
		AvgDurationMS:  m.AvgDurationMS,
	})
}

func writeCrawlError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, crawl.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, "crawl already running")
	case errors.Is(err, crawl.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, crawl.ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "tenant not found")
	default:
		writeError(w, http.StatusInternalServerError, "crawl failed")
	}
}
