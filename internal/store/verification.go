package store

import (
	"context"
	"fmt"
	"time"

	"github.com/trustpass/trustpass/internal/model"
)

// CreateVerification appends a verification log row. There is deliberately
// no update or delete counterpart.
func (s *Store) CreateVerification(ctx context.Context, v *model.Verification) error {
	if v.VerifiedAt.IsZero() {
		v.VerifiedAt = time.Now().UTC()
	}

	const q = `INSERT INTO verifications (employee_id, verified_at, verifier_ip)
		VALUES (?, ?, ?) RETURNING id`

	err := s.db.QueryRowContext(ctx, s.rebind(q),
		v.EmployeeID, v.VerifiedAt, v.VerifierIP,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

// ListVerificationsByEmployee returns an employee's verification log,
// newest first.
func (s *Store) ListVerificationsByEmployee(ctx context.Context, employeeID int64) ([]model.Verification, error) {
	var out []model.Verification
	const q = `SELECT id, employee_id, verified_at, verifier_ip
		FROM verifications WHERE employee_id = ? ORDER BY verified_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &out, s.rebind(q), employeeID); err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	return out, nil
}
