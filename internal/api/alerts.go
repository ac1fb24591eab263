package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"marketguard/internal/domain"
)

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"
	alerts, err := s.store.ListAlertsByTenant(r.Context(), tenantID, unreadOnly, 200)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list alerts failed")
		return
	}
	writeJSON(w, alerts)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "alertID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	if err := s.store.MarkAlertRead(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "mark alert read failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetAlertSetting(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	kind := domain.AlertKind(chi.URLParam(r, "kind"))
	setting, err := s.store.AlertSetting(r.Context(), tenantID, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get alert setting failed")
		return
	}
	writeJSON(w, setting)
}

type upsertAlertSettingRequest struct {
	Enabled   bool     `json:"enabled"`
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleUpsertAlertSetting(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	kind := domain.AlertKind(chi.URLParam(r, "kind"))
	if kind != domain.AlertPriceUndercut && kind != domain.AlertRankDrop {
		writeError(w, http.StatusBadRequest, "unknown alert kind")
		return
	}
	var req upsertAlertSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	setting := domain.AlertSetting{TenantID: tenantID, Kind: kind, Enabled: req.Enabled, Threshold: req.Threshold}
	if err := s.store.UpsertAlertSetting(r.Context(), setting); err != nil {
		writeError(w, http.StatusInternalServerError, "upsert alert setting failed")
		return
	}
	writeJSON(w, setting)
}

type createPushSubscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

func (s *Server) handleCreatePushSubscription(w http.ResponseWriter, r *http.Request) {
	tenantID, err := pathInt64(r, "tenantID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tenant id")
		return
	}
	var req createPushSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint, p256dh and auth are required")
		return
	}
	p := &domain.PushSubscription{TenantID: tenantID, Endpoint: req.Endpoint, P256dh: req.P256dh, Auth: req.Auth}
	id, err := s.store.CreatePushSubscription(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "create push subscription failed")
		return
	}
	p.ID = id
	writeJSONStatus(w, http.StatusCreated, p)
}

type deletePushSubscriptionRequest struct {
	TenantID int64  `json:"tenant_id"`
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleDeletePushSubscription(w http.ResponseWriter, r *http.Request) {
	var req deletePushSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TenantID == 0 || req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and endpoint are required")
		return
	}
	if err := s.store.DeletePushSubscriptionByEndpoint(r.Context(), req.TenantID, req.Endpoint); err != nil {
		writeError(w, http.StatusInternalServerError, "delete push subscription failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
