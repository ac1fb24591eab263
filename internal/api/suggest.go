package api

import (
	"net/http"

	"marketguard/internal/keywordgen"
)

// handleSuggestKeywords runs the tokenize/classify/generate pipeline over a
// product's own name as stored (the tenant's own store label is not
// stripped) and returns up to 5 ranked candidates, seeded with the
// tenant's cached brand/category dictionary.
func (s *Server) handleSuggestKeywords(w http.ResponseWriter, r *http.Request) {
	productID, err := pathInt64(r, "productID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.store.GetProduct(r.Context(), productID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	brands, types := s.dictionary.Lookup(r.Context(), product.TenantID)
	candidates := keywordgen.FromProductName(product.Name, brands, types, 5)
	writeJSON(w, candidates)
}
