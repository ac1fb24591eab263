package store

import (
	"context"
	"fmt"

	"marketguard/internal/domain"
)

func (s *Store) CreatePushSubscription(ctx context.Context, p *domain.PushSubscription) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO push_subscriptions (tenant_id, endpoint, p256dh, auth) VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id, endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth`,
		p.TenantID, p.Endpoint, p.P256dh, p.Auth)
	if err != nil {
		return 0, fmt.Errorf("store: create push subscription: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) ListPushSubscriptionsByTenant(ctx context.Context, tenantID int64) ([]domain.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE tenant_id = ?`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("store: list push subscriptions: %w", err)
	}
	defer rows.Close()

	var out []domain.PushSubscription
	for rows.Next() {
		var p domain.PushSubscription
		var createdAt string
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Endpoint, &p.P256dh, &p.Auth, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan push subscription: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePushSubscriptionByEndpoint removes a subscription the push
// delivery path found stale (HTTP 404/410 from the push service).
func (s *Store) DeletePushSubscriptionByEndpoint(ctx context.Context, tenantID int64, endpoint string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE tenant_id = ? AND endpoint = ?`, tenantID, endpoint)
	return err
}
