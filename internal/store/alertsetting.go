package store

import (
	"context"
	"database/sql"
	"fmt"

	"marketguard/internal/domain"
)

// AlertSetting returns a tenant's setting for kind, defaulting to enabled
// with no threshold when no row exists.
func (s *Store) AlertSetting(ctx context.Context, tenantID int64, kind domain.AlertKind) (domain.AlertSetting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT enabled, threshold FROM alert_settings WHERE tenant_id = ? AND kind = ?`, tenantID, string(kind))
	var enabled int
	var threshold sql.NullFloat64
	switch err := row.Scan(&enabled, &threshold); {
	case err == sql.ErrNoRows:
		return domain.AlertSetting{TenantID: tenantID, Kind: kind, Enabled: true}, nil
	case err != nil:
		return domain.AlertSetting{}, fmt.Errorf("store: alert setting: %w", err)
	}
	setting := domain.AlertSetting{TenantID: tenantID, Kind: kind, Enabled: enabled != 0}
	if threshold.Valid {
		setting.Threshold = &threshold.Float64
	}
	return setting, nil
}

func (s *Store) UpsertAlertSetting(ctx context.Context, setting domain.AlertSetting) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alert_settings (tenant_id, kind, enabled, threshold) VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id, kind) DO UPDATE SET enabled = excluded.enabled, threshold = excluded.threshold`,
		setting.TenantID, string(setting.Kind), boolToInt(setting.Enabled), setting.Threshold)
	if err != nil {
		return fmt.Errorf("store: upsert alert setting: %w", err)
	}
	return nil
}
