// Package api is the HTTP surface (spec §6): CRUD over tenants, products,
// keywords and their overrides, plus the operational crawl/health/export
// endpoints.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"marketguard/internal/alertengine"
	"marketguard/internal/config"
	"marketguard/internal/crawl"
	"marketguard/internal/keywordgen"
	"marketguard/internal/metrics"
	"marketguard/internal/store"
)

// Server wires the store, crawl coordinator, alert engine and keyword
// dictionary behind a chi router.
type Server struct {
	store       *store.Store
	coordinator *crawl.Coordinator
	alerts      *alertengine.Engine
	dictionary  *keywordgen.Dictionary
	cfg         *config.Config
	log         *zap.Logger
	startedAt   time.Time
}

func NewServer(st *store.Store, coordinator *crawl.Coordinator, alerts *alertengine.Engine, dictionary *keywordgen.Dictionary, cfg *config.Config, log *zap.Logger) *Server {
	return &Server{
		store:       st,
		coordinator: coordinator,
		alerts:      alerts,
		dictionary:  dictionary,
		cfg:         cfg,
		log:         log,
		startedAt:   time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", s.handleCreateTenant)
		r.Get("/", s.handleListTenants)
		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", s.handleGetTenant)
			r.Delete("/", s.handleDeleteTenant)
			r.Get("/products", s.handleListProductsByTenant)
			r.Get("/alerts", s.handleListAlerts)
			r.Get("/alert-settings/{kind}", s.handleGetAlertSetting)
			r.Put("/alert-settings/{kind}", s.handleUpsertAlertSetting)
			r.Get("/cost-presets", s.handleListCostPresets)
			r.Post("/cost-presets", s.handleCreateCostPreset)
			r.Post("/push-subscriptions", s.handleCreatePushSubscription)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Post("/", s.handleCreateProduct)
		r.Route("/{productID}", func(r chi.Router) {
			r.Get("/", s.handleGetProduct)
			r.Get("/export.csv", s.handleExportCSV)
			r.Route("/keywords", func(r chi.Router) {
				r.Post("/", s.handleCreateKeyword)
				r.Get("/", s.handleListKeywords)
			})
			r.Route("/blacklist", func(r chi.Router) {
				r.Post("/", s.handleCreateBlacklistEntry)
				r.Get("/", s.handleListBlacklist)
			})
			r.Route("/include-overrides", func(r chi.Router) {
				r.Post("/", s.handleCreateIncludeOverride)
				r.Get("/", s.handleListIncludeOverrides)
			})
			r.Route("/shipping-overrides", func(r chi.Router) {
				r.Post("/", s.handleCreateShippingOverride)
				r.Get("/", s.handleListShippingOverrides)
			})
			r.Route("/cost-items", func(r chi.Router) {
				r.Post("/", s.handleCreateCostItem)
				r.Get("/", s.handleListCostItems)
			})
			r.Get("/keyword-suggestions", s.handleSuggestKeywords)
		})
	})

	r.Route("/keywords/{keywordID}", func(r chi.Router) {
		r.Delete("/", s.handleDeleteKeyword)
		r.Put("/active", s.handleSetKeywordActive)
		r.Get("/sparkline", s.handleSparkline)
	})

	r.Delete("/blacklist/{entryID}", s.handleDeleteBlacklistEntry)
	r.Delete("/include-overrides/{overrideID}", s.handleDeleteIncludeOverride)
	r.Delete("/shipping-overrides/{overrideID}", s.handleDeleteShippingOverride)
	r.Delete("/cost-items/{itemID}", s.handleDeleteCostItem)
	r.Put("/alerts/{alertID}/read", s.handleMarkAlertRead)
	r.Delete("/push-subscriptions", s.handleDeletePushSubscription)

	r.Route("/crawl", func(r chi.Router) {
		r.Post("/product/{productID}", s.handleCrawlProduct)
		r.Post("/user/{tenantID}", s.handleCrawlTenant)
		r.Get("/status/{tenantID}", s.handleCrawlStatus)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Info("api: request",
			zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.Int("status", sw.status), zap.Duration("duration", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func pathInt64(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, key), 10, 64)
}
