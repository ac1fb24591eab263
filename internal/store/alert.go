package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketguard/internal/domain"
)

func (s *Store) CreateAlert(ctx context.Context, a *domain.Alert) (int64, error) {
	payload, _ := json.Marshal(a.Payload)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (tenant_id, product_id, kind, title, body, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.TenantID, a.ProductID, string(a.Kind), a.Title, a.Body, string(payload))
	if err != nil {
		return 0, fmt.Errorf("store: create alert: %w", err)
	}
	return res.LastInsertId()
}

// HasRecentAlert reports whether an unread alert of kind already exists for
// productID within the dedup window, e.g. the 24h price_undercut and
// rank_drop suppression windows (§4.F). Read alerts do not suppress.
func (s *Store) HasRecentAlert(ctx context.Context, productID int64, kind domain.AlertKind, since time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM alerts
		WHERE product_id = ? AND kind = ? AND is_read = 0 AND created_at >= ?`,
		productID, string(kind), since.UTC().Format("2006-01-02T15:04:05.000Z"),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: has recent alert: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListAlertsByTenant(ctx context.Context, tenantID int64, unreadOnly bool, limit int) ([]domain.Alert, error) {
	q := `SELECT id, tenant_id, product_id, kind, title, body, payload, is_read, created_at
		FROM alerts WHERE tenant_id = ?`
	if unreadOnly {
		q += ` AND is_read = 0`
	}
	q += ` ORDER BY created_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var payload, createdAt string
		var isRead int
		if err := rows.Scan(&a.ID, &a.TenantID, &a.ProductID, &a.Kind, &a.Title, &a.Body,
			&payload, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan alert: %w", err)
		}
		json.Unmarshal([]byte(payload), &a.Payload)
		a.Read = isRead != 0
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) MarkAlertRead(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE alerts SET is_read = 1 WHERE id = ?`, id)
	return err
}
