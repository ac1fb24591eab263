package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketguard/internal/domain"
	"marketguard/internal/store"
)

type createTenantRequest struct {
	Name                 string `json:"name"`
	OwnStoreLabel        string `json:"own_store_label"`
	CrawlIntervalMinutes int    `json:"crawl_interval_minutes"`
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	t := &domain.Tenant{Name: req.Name, OwnStoreLabel: req.OwnStoreLabel, CrawlIntervalMinutes: req.CrawlIntervalMinutes}
	id, err := s.store.CreateTenant(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create tenant failed")
		return
	}
	t.ID = id
	writeJSONStatus(w, http.StatusCreated, t)
}

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.store.ListTenants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list tenants failed")
		return
	}
	writeJSON(w, tenants)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	t, err := s.store.GetTenant(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tenant not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get tenant failed")
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	if err := s.store.DeleteTenant(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete tenant failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProductsByTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	products, err := s.store.ListProductsByTenant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list products failed")
		return
	}
	writeJSON(w, products)
}
