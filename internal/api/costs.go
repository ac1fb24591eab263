package api

import (
	"encoding/json"
	"net/http"

	"marketguard/internal/domain"
)

type createCostItemRequest struct {
	Label  string          `json:"label"`
	Amount float64         `json:"amount"`
	Kind   domain.CostKind `json:"kind"`
}

func (s *Server) handleCreateCostItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req createCostItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Label == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}
	if req.Kind != domain.CostFixed && req.Kind != domain.CostPercent {
		writeError(w, http.StatusBadRequest, "kind must be fixed or percent")
		return
	}
	c := &domain.CostItem{ProductID: productID, Label: req.Label, Amount: req.Amount, Kind: req.Kind}
	id, err := s.store.CreateCostItem(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create cost item failed")
		return
	}
	c.ID = id
	writeJSONStatus(w, http.StatusCreated, c)
}

func (s *Server) handleListCostItems(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	items, err := s.store.ListCostItemsByProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list cost items failed")
		return
	}
	writeJSON(w, items)
}

func (s *Server) handleDeleteCostItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "itemID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if err := s.store.DeleteCostItem(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete cost item failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createCostPresetRequest struct {
	Name  string            `json:"name"`
	Items []domain.CostItem `json:"items"`
}

func (s *Server) handleCreateCostPreset(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	var req createCostPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	p := &domain.CostPreset{TenantID: tenantID, Name: req.Name, Items: req.Items}
	id, err := s.store.CreateCostPreset(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create cost preset failed")
		return
	}
	p.ID = id
	writeJSONStatus(w, http.StatusCreated, p)
}

func (s *Server) handleListCostPresets(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	presets, err := s.store.ListCostPresetsByTenant(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list cost presets failed")
		return
	}
	writeJSON(w, presets)
}
