package api

import (
	"encoding/json"
	"net/http"

	"marketguard/internal/domain"
)

type createBlacklistRequest struct {
	ListingID string `json:"listing_id"`
	MallName  string `json:"mall_name"`
}

func (s *Server) handleCreateBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req createBlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	e := &domain.BlacklistEntry{ProductID: productID, ListingID: req.ListingID, MallName: req.MallName}
	id, err := s.store.CreateBlacklistEntry(r.Context(), e)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create blacklist entry failed")
		return
	}
	e.ID = id
	writeJSONStatus(w, http.StatusCreated, e)
}

func (s *Server) handleListBlacklist(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	entries, err := s.store.ListBlacklistByProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list blacklist failed")
		return
	}
	writeJSON(w, entries)
}

func (s *Server) handleDeleteBlacklistEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "entryID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	if err := s.store.DeleteBlacklistEntry(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete blacklist entry failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createIncludeOverrideRequest struct {
	ListingID string `json:"listing_id"`
}

func (s *Server) handleCreateIncludeOverride(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req createIncludeOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	o := &domain.IncludeOverride{ProductID: productID, ListingID: req.ListingID}
	id, err := s.store.CreateIncludeOverride(r.Context(), o)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create include override failed")
		return
	}
	o.ID = id
	writeJSONStatus(w, http.StatusCreated, o)
}

func (s *Server) handleListIncludeOverrides(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	overrides, err := s.store.ListIncludeOverridesByProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list include overrides failed")
		return
	}
	writeJSON(w, overrides)
}

func (s *Server) handleDeleteIncludeOverride(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "overrideID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}
	if err := s.store.DeleteIncludeOverride(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete include override failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createShippingOverrideRequest struct {
	ListingID   string `json:"listing_id"`
	ShippingFee int64  `json:"shipping_fee"`
}

func (s *Server) handleCreateShippingOverride(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req createShippingOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ListingID == "" {
		writeError(w, http.StatusBadRequest, "listing_id is required")
		return
	}
	o := &domain.ShippingOverride{ProductID: productID, ListingID: req.ListingID, ShippingFee: req.ShippingFee}
	id, err := s.store.CreateShippingOverride(r.Context(), o)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create shipping override failed")
		return
	}
	o.ID = id
	writeJSONStatus(w, http.StatusCreated, o)
}

func (s *Server) handleListShippingOverrides(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	overrides, err := s.store.ListShippingOverridesByProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list shipping overrides failed")
		return
	}
	writeJSON(w, overrides)
}

func (s *Server) handleDeleteShippingOverride(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "overrideID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid override id")
		return
	}
	if err := s.store.DeleteShippingOverride(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "delete shipping override failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
