package model

import "time"

// Verification is an append-only log row created every time the public
// verification endpoint is hit for an employee. There is no update or delete
// path; rows are only removed when the owning employee is deleted.
type Verification struct {
	ID         int64     `json:"id" db:"id"`
	EmployeeID int64     `json:"employee_id" db:"employee_id"`
	VerifiedAt time.Time `json:"verified_at" db:"verified_at"`
	VerifierIP string    `json:"verifier_ip,omitempty" db:"verifier_ip"`
}

// Stats are the dashboard counters.
type Stats struct {
	ActiveEmployees    int64 `json:"active_employees"`
	InactiveEmployees  int64 `json:"inactive_employees"`
	SuspendedEmployees int64 `json:"suspended_employees"`
	TotalEmployees     int64 `json:"total_employees"`
	TodayVerifications int64 `json:"today_verifications"`
}
