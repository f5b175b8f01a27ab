package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trustpass/trustpass/internal/model"
)

// CreateAdmin inserts a new admin account. The caller supplies the bcrypt
// password hash; this layer never sees plaintext passwords.
func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	const q = `INSERT INTO admins (email, password_hash, name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

	err := s.db.QueryRowContext(ctx, s.rebind(q),
		a.Email, a.PasswordHash, a.Name, a.IsActive, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdminByEmail returns an admin account by its unique email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	const q = `SELECT id, email, password_hash, name, is_active, last_login_at, created_at, updated_at
		FROM admins WHERE email = ?`
	if err := s.db.GetContext(ctx, &a, s.rebind(q), email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &a, nil
}

// ListAdmins returns all admin accounts.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var out []model.Admin
	const q = `SELECT id, email, password_hash, name, is_active, last_login_at, created_at, updated_at
		FROM admins ORDER BY email`
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return out, nil
}

// HasAnyAdmin reports whether at least one admin account exists. The setup
// endpoint uses this to allow exactly one bootstrap.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM admins"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return n > 0, nil
}

// UpdateAdminLastLogin stamps the last successful login time.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64) error {
	const q = `UPDATE admins SET last_login_at = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, s.rebind(q), time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return nil
}
