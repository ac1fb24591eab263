// Package alertengine is the alert engine (spec component F): threshold
// checks run after a product's keywords are persisted, deduped within a
// window, fanned out over Web Push.
package alertengine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketguard/internal/config"
	"marketguard/internal/domain"
	"marketguard/internal/metrics"
	"marketguard/internal/store"
)

// Engine runs the undercut and rank-drop checks for one product after its
// keywords finish a persist phase.
type Engine struct {
	store *store.Store
	push  *PushSender
	cfg   *config.Config
	log   *zap.Logger
}

func NewEngine(st *store.Store, push *PushSender, cfg *config.Config, log *zap.Logger) *Engine {
	return &Engine{store: st, push: push, cfg: cfg, log: log}
}

// CheckAfterPersist runs both checks for product against its currently
// active keywords. Each check independently respects the tenant's
// AlertSetting and the alert dedup window.
func (e *Engine) CheckAfterPersist(ctx context.Context, product *domain.CatalogProduct, keywords []domain.Keyword) error {
	if err := e.checkUndercut(ctx, product, keywords); err != nil {
		e.log.Warn("alertengine: undercut check failed", zap.Int64("product_id", product.ID), zap.Error(err))
	}
	if err := e.checkRankDrop(ctx, product, keywords); err != nil {
		e.log.Warn("alertengine: rank drop check failed", zap.Int64("product_id", product.ID), zap.Error(err))
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, product *domain.CatalogProduct, kind domain.AlertKind, title, body string, payload map[string]any) error {
	alert := &domain.Alert{
		TenantID:  product.TenantID,
		ProductID: product.ID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Payload:   payload,
	}
	if _, err := e.store.CreateAlert(ctx, alert); err != nil {
		return fmt.Errorf("alertengine: create alert: %w", err)
	}
	metrics.AlertsEmittedTotal.WithLabelValues(string(kind)).Inc()
	e.push.FanOut(ctx, product.TenantID, title, body)
	return nil
}

func (e *Engine) settingEnabled(ctx context.Context, tenantID int64, kind domain.AlertKind) bool {
	setting, err := e.store.AlertSetting(ctx, tenantID, kind)
	if err != nil {
		e.log.Warn("alertengine: load alert setting failed", zap.Error(err))
		return true
	}
	return setting.Enabled
}
