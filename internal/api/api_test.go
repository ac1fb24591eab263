package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"marketguard/internal/config"
	"marketguard/internal/domain"
	"marketguard/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{SchedulerCheckInterval: 0}
	return NewServer(st, nil, nil, nil, cfg, zap.NewNop()), st
}

func TestHandleHealth_DegradedWhenSchedulerDisabledAndNeverCrawled(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Checks.Scheduler != "disabled" {
		t.Errorf("checks.scheduler = %q, want disabled", resp.Checks.Scheduler)
	}
}

func TestHandleCreateTenant_RequiresName(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/tenants",bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleCreateAndGetTenant(t *testing.T) {
	s, _ := newTestServer(t)

	createReq := httptest.NewRequest(http.MethodPost, "/tenants",bytes.NewBufferString(`{"name":"acme","crawl_interval_minutes":60}`))
	createRec := httptest.NewRecorder()
	s.Router().ServeHTTP(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201, body=%s", createRec.Code, createRec.Body.String())
	}
	var created domain.Tenant
	if err := json.NewDecoder(createRec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created tenant: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created tenant has zero ID")
	}

	getReq := httptest.NewRequest(http.MethodGet, "/tenants/"+itoa(created.ID), nil)
	getRec := httptest.NewRecorder()
	s.Router().ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200, body=%s", getRec.Code, getRec.Body.String())
	}
}

func TestHandleGetTenant_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/tenants/999", nil)
	rec := httptest.NewRecorder()

	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDeleteTenant_RemovesIt(t *testing.T) {
	s, st := newTestServer(t)
	id, err := st.CreateTenant(context.Background(), &domain.Tenant{Name: "acme"})
	if err != nil {
		t.Fatalf("CreateTenant() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/tenants/"+itoa(id), nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	if _, err := st.GetTenant(context.Background(), id); err != store.ErrNotFound {
		t.Errorf("GetTenant() after delete error = %v, want ErrNotFound", err)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
