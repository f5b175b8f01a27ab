package model

import (
	"fmt"
	"time"
)

// EmploymentType distinguishes permanent staff from fixed-term contractors.
type EmploymentType string

const (
	EmploymentPermanent EmploymentType = "permanent"
	EmploymentTemporary EmploymentType = "temporary"
)

// Valid reports whether t is one of the known employment types.
func (t EmploymentType) Valid() bool {
	return t == EmploymentPermanent || t == EmploymentTemporary
}

// Status is the derived verification state shown to the public. It is never
// stored; it is computed from the employee flags and DBS expiry at read time.
type Status string

const (
	StatusActive           Status = "active"
	StatusSuspended        Status = "suspended"
	StatusInactive         Status = "inactive"
	StatusClearanceExpired Status = "clearance_expired"
)

// Label returns the human-readable wording shown on the public verification
// page.
func (s Status) Label() string {
	switch s {
	case StatusSuspended:
		return "Currently Suspended"
	case StatusInactive:
		return "No Longer Employed"
	case StatusClearanceExpired:
		return "Security Clearance Expired"
	default:
		return "Currently Employed"
	}
}

// Employee is one roster entry. EmployeeID is the human-assigned badge
// identifier embedded in QR codes; ID is the surrogate database key.
type Employee struct {
	ID             int64          `json:"id" db:"id"`
	EmployeeID     string         `json:"employee_id" db:"employee_id"`
	FullName       string         `json:"full_name" db:"full_name"`
	Email          string         `json:"email,omitempty" db:"email"`
	DBSNumber      string         `json:"dbs_number" db:"dbs_number"`
	DBSExpiryDate  *time.Time     `json:"dbs_expiry_date,omitempty" db:"dbs_expiry_date"`
	Position       string         `json:"position,omitempty" db:"position"`
	StartDate      time.Time      `json:"start_date" db:"start_date"`
	EmploymentType EmploymentType `json:"employment_type" db:"employment_type"`
	ValidUntilDate *time.Time     `json:"valid_until_date,omitempty" db:"valid_until_date"`
	PhotoURL       string         `json:"photo_url,omitempty" db:"photo_url"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	IsSuspended    bool           `json:"is_suspended" db:"is_suspended"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// StatusAt derives the verification status at a given instant. Suspension
// dominates, then termination, then an expired DBS certificate; an expiry
// exactly equal to now is still valid. ValidUntilDate does not affect status.
func (e *Employee) StatusAt(now time.Time) Status {
	switch {
	case e.IsSuspended:
		return StatusSuspended
	case !e.IsActive:
		return StatusInactive
	case e.DBSExpiryDate != nil && e.DBSExpiryDate.Before(now):
		return StatusClearanceExpired
	default:
		return StatusActive
	}
}

// Validate checks the invariants enforced at the API boundary.
func (e *Employee) Validate() error {
	if e.EmployeeID == "" {
		return fmt.Errorf("employee_id is required")
	}
	if e.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if e.StartDate.IsZero() {
		return fmt.Errorf("start_date is required")
	}
	if !e.EmploymentType.Valid() {
		return fmt.Errorf("employment_type must be %q or %q", EmploymentPermanent, EmploymentTemporary)
	}
	if e.EmploymentType == EmploymentTemporary && e.ValidUntilDate == nil {
		return fmt.Errorf("valid_until_date is required for temporary employment")
	}
	return nil
}
