package store

import "fmt"

// migrations returns the ordered DDL statements for the given driver. The
// two dialects differ only in the surrogate-key and timestamp column types;
// everything else is shared so the schemas stay in lockstep.
func migrations(driver string) []string {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	ts := "DATETIME"
	if driver == driverPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
		ts = "TIMESTAMPTZ"
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS employees (
			id %s,
			employee_id TEXT UNIQUE NOT NULL,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			dbs_number TEXT NOT NULL,
			dbs_expiry_date %s,
			position TEXT NOT NULL DEFAULT '',
			start_date %s NOT NULL,
			employment_type TEXT NOT NULL DEFAULT 'permanent',
			valid_until_date %s,
			photo_url TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			is_suspended BOOLEAN NOT NULL DEFAULT FALSE,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts, ts, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS verifications (
			id %s,
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			verified_at %s NOT NULL,
			verifier_ip TEXT NOT NULL DEFAULT ''
		)`, pk, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS admins (
			id %s,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			last_login_at %s,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, pk, ts, ts, ts),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS notifications (
			id %s,
			employee_id BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			type TEXT NOT NULL,
			sent_at %s NOT NULL,
			details TEXT NOT NULL DEFAULT ''
		)`, pk, ts),

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_employees_employee_id ON employees(employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_verifications_employee ON verifications(employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_dedup ON notifications(employee_id, type, sent_at)`,
	}
}

func (s *Store) migrate() error {
	for _, m := range migrations(s.driver) {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
