package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trustpass/trustpass/internal/model"
)

const employeeColumns = `id, employee_id, full_name, email, dbs_number, dbs_expiry_date,
	position, start_date, employment_type, valid_until_date, photo_url,
	is_active, is_suspended, created_at, updated_at`

// CreateEmployee inserts a new roster entry. The ID, CreatedAt, and UpdatedAt
// fields on e are populated after a successful insert.
func (s *Store) CreateEmployee(ctx context.Context, e *model.Employee) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	const q = `INSERT INTO employees
		(employee_id, full_name, email, dbs_number, dbs_expiry_date,
		 position, start_date, employment_type, valid_until_date, photo_url,
		 is_active, is_suspended, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, s.rebind(q),
		e.EmployeeID, e.FullName, e.Email, e.DBSNumber, e.DBSExpiryDate,
		e.Position, e.StartDate, e.EmploymentType, e.ValidUntilDate, e.PhotoURL,
		e.IsActive, e.IsSuspended, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}
	return nil
}

// GetEmployee returns an employee by surrogate ID.
func (s *Store) GetEmployee(ctx context.Context, id int64) (*model.Employee, error) {
	var e model.Employee
	q := "SELECT " + employeeColumns + " FROM employees WHERE id = ?"
	if err := s.db.GetContext(ctx, &e, s.rebind(q), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &e, nil
}

// GetEmployeeByBusinessID returns an employee by the human-assigned badge ID,
// the identifier embedded in QR codes.
func (s *Store) GetEmployeeByBusinessID(ctx context.Context, employeeID string) (*model.Employee, error) {
	var e model.Employee
	q := "SELECT " + employeeColumns + " FROM employees WHERE employee_id = ?"
	if err := s.db.GetContext(ctx, &e, s.rebind(q), employeeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get employee by business id: %w", err)
	}
	return &e, nil
}

// ListEmployees returns the full roster, newest first.
func (s *Store) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	q := "SELECT " + employeeColumns + " FROM employees ORDER BY created_at DESC, id DESC"
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return out, nil
}

// UpdateEmployee writes the full employee row. UpdatedAt is refreshed.
func (s *Store) UpdateEmployee(ctx context.Context, e *model.Employee) error {
	e.UpdatedAt = time.Now().UTC()

	const q = `UPDATE employees SET
		employee_id = ?, full_name = ?, email = ?, dbs_number = ?, dbs_expiry_date = ?,
		position = ?, start_date = ?, employment_type = ?, valid_until_date = ?, photo_url = ?,
		is_active = ?, is_suspended = ?, updated_at = ?
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, s.rebind(q),
		e.EmployeeID, e.FullName, e.Email, e.DBSNumber, e.DBSExpiryDate,
		e.Position, e.StartDate, e.EmploymentType, e.ValidUntilDate, e.PhotoURL,
		e.IsActive, e.IsSuspended, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEmployee removes an employee along with its verification log and
// notification audit rows.
func (s *Store) DeleteEmployee(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM verifications WHERE employee_id = ?"), id); err != nil {
		return fmt.Errorf("delete verifications: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM notifications WHERE employee_id = ?"), id); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM employees WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ListExpiringDBS returns active employees whose DBS certificate expires on
// or before cutoff. Employees without an expiry date are never included.
func (s *Store) ListExpiringDBS(ctx context.Context, cutoff time.Time) ([]model.Employee, error) {
	var out []model.Employee
	q := "SELECT " + employeeColumns + ` FROM employees
		WHERE is_active = ? AND dbs_expiry_date IS NOT NULL AND dbs_expiry_date <= ?
		ORDER BY dbs_expiry_date ASC`
	if err := s.db.SelectContext(ctx, &out, s.rebind(q), true, cutoff); err != nil {
		return nil, fmt.Errorf("list expiring dbs: %w", err)
	}
	return out, nil
}

// EmployeeStats returns the dashboard counters. since bounds the verification
// count, normally the start of the current day.
func (s *Store) EmployeeStats(ctx context.Context, since time.Time) (*model.Stats, error) {
	var st model.Stats

	counts := []struct {
		dest  *int64
		query string
		args  []interface{}
	}{
		{&st.ActiveEmployees, "SELECT COUNT(*) FROM employees WHERE is_active = ? AND is_suspended = ?", []interface{}{true, false}},
		{&st.InactiveEmployees, "SELECT COUNT(*) FROM employees WHERE is_active = ?", []interface{}{false}},
		{&st.SuspendedEmployees, "SELECT COUNT(*) FROM employees WHERE is_suspended = ?", []interface{}{true}},
		{&st.TotalEmployees, "SELECT COUNT(*) FROM employees", nil},
		{&st.TodayVerifications, "SELECT COUNT(*) FROM verifications WHERE verified_at >= ?", []interface{}{since}},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, s.rebind(c.query), c.args...); err != nil {
			return nil, fmt.Errorf("employee stats: %w", err)
		}
	}
	return &st, nil
}
