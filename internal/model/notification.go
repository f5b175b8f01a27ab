package model

import "time"

// NotificationType names the event a notification email was sent about.
type NotificationType string

const (
	NotificationDBSExpiry           NotificationType = "dbs_expiry"
	NotificationDBSExpired          NotificationType = "dbs_expired"
	NotificationEmployeeSuspended   NotificationType = "employee_suspended"
	NotificationEmployeeDeactivated NotificationType = "employee_deactivated"
)

// Notification is an append-only audit record of a reported-successful email
// send. It doubles as the deduplication state: a row within the dedup window
// suppresses a repeat send for the same (employee, type).
type Notification struct {
	ID         int64            `json:"id" db:"id"`
	EmployeeID int64            `json:"employee_id" db:"employee_id"`
	Type       NotificationType `json:"type" db:"type"`
	SentAt     time.Time        `json:"sent_at" db:"sent_at"`
	Details    string           `json:"details,omitempty" db:"details"` // JSON blob
}
