package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"marketguard/internal/domain"
	"marketguard/internal/store"
)

const sparklineWindowDays = 30

type createKeywordRequest struct {
	Text     string          `json:"text"`
	SortMode domain.SortMode `json:"sort_mode"`
	Active   bool            `json:"active"`
}

func (s *Server) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req createKeywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.SortMode == "" {
		req.SortMode = domain.SortRelevance
	}
	if !req.SortMode.Valid() {
		writeError(w, http.StatusBadRequest, "invalid sort_mode")
		return
	}

	k := &domain.Keyword{ProductID: productID, Text: req.Text, SortMode: req.SortMode, Active: req.Active}
	id, err := s.store.CreateKeyword(r.Context(), k, s.cfg.MaxKeywordsPerProduct)
	if err != nil {
		if errors.Is(err, store.ErrKeywordLimitReached) {
			writeError(w, http.StatusConflict, "keyword limit reached")
			return
		}
		writeError(w, http.StatusInternalServerError, "create keyword failed")
		return
	}
	k.ID = id
	writeJSONStatus(w, http.StatusCreated, k)
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	keywords, err := s.store.ListKeywordsByProduct(r.Context(), productID, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list keywords failed")
		return
	}
	writeJSON(w, keywords)
}

func (s *Server) handleDeleteKeyword(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "keywordID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	if err := s.store.DeleteKeyword(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrPrimaryKeywordUndeletable) {
			writeError(w, http.StatusConflict, "primary keyword cannot be deleted")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "keyword not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "delete keyword failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSparkline returns the trailing 30-day per-day minimum total cost
// (price + shipping_fee) among relevant listings, for the dashboard's
// price-trend chart.
func (s *Server) handleSparkline(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "keywordID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	since := time.Now().AddDate(0, 0, -sparklineWindowDays)
	points, err := s.store.Sparkline(r.Context(), id, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sparkline failed")
		return
	}
	writeJSON(w, points)
}

type setKeywordActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleSetKeywordActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "keywordID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid keyword id")
		return
	}
	var req setKeywordActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.store.SetKeywordActive(r.Context(), id, req.Active); err != nil {
		writeError(w, http.StatusInternalServerError, "set keyword active failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
