package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketguard/internal/domain"
	"marketguard/internal/store"
)

type createProductRequest struct {
	TenantID          int64             `json:"tenant_id"`
	Name              string            `json:"name"`
	Category          string            `json:"category"`
	CostPrice         int64             `json:"cost_price"`
	SellingPrice      int64             `json:"selling_price"`
	OwnListingID      string            `json:"own_listing_id"`
	ModelCode         string            `json:"model_code"`
	SpecKeywords      []string          `json:"spec_keywords"`
	PriceFilterMinPct float64           `json:"price_filter_min_pct"`
	PriceFilterMaxPct float64           `json:"price_filter_max_pct"`
	PriceLocked       bool              `json:"price_locked"`
	Attributes        map[string]string `json:"attributes"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TenantID == 0 || req.Name == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and name are required")
		return
	}

	p := &domain.CatalogProduct{
		TenantID:          req.TenantID,
		Name:              req.Name,
		Category:          req.Category,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		OwnListingID:      req.OwnListingID,
		ModelCode:         req.ModelCode,
		SpecKeywords:      req.SpecKeywords,
		PriceFilterMinPct: req.PriceFilterMinPct,
		PriceFilterMaxPct: req.PriceFilterMaxPct,
		PriceLocked:       req.PriceLocked,
		Attributes:        req.Attributes,
	}
	id, err := s.store.CreateProduct(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create product failed")
		return
	}
	p.ID = id
	writeJSONStatus(w, http.StatusCreated, p)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "get product failed")
		return
	}
	writeJSON(w, p)
}
