package store

import (
	"context"
	"fmt"
	"time"

	"github.com/trustpass/trustpass/internal/model"
)

// CreateNotification appends a notification audit row. Callers must only do
// this after the email transport reported success; a row in this table is
// taken to mean "a send was reported successful".
func (s *Store) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}

	const q = `INSERT INTO notifications (employee_id, type, sent_at, details)
		VALUES (?, ?, ?, ?) RETURNING id`

	err := s.db.QueryRowContext(ctx, s.rebind(q),
		n.EmployeeID, n.Type, n.SentAt, n.Details,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// HasNotificationSince reports whether a notification of the given type was
// recorded for the employee strictly after since. A nil since means "ever".
func (s *Store) HasNotificationSince(ctx context.Context, employeeID int64, ntype model.NotificationType, since *time.Time) (bool, error) {
	var n int64
	var err error
	if since == nil {
		const q = `SELECT COUNT(*) FROM notifications WHERE employee_id = ? AND type = ?`
		err = s.db.GetContext(ctx, &n, s.rebind(q), employeeID, ntype)
	} else {
		const q = `SELECT COUNT(*) FROM notifications WHERE employee_id = ? AND type = ? AND sent_at > ?`
		err = s.db.GetContext(ctx, &n, s.rebind(q), employeeID, ntype, *since)
	}
	if err != nil {
		return false, fmt.Errorf("check notification: %w", err)
	}
	return n > 0, nil
}

// ListNotificationsByEmployee returns the audit trail for one employee,
// newest first.
func (s *Store) ListNotificationsByEmployee(ctx context.Context, employeeID int64) ([]model.Notification, error) {
	var out []model.Notification
	const q = `SELECT id, employee_id, type, sent_at, details
		FROM notifications WHERE employee_id = ? ORDER BY sent_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &out, s.rebind(q), employeeID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}
