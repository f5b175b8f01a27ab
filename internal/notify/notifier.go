package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/trustpass/trustpass/internal/model"
	"github.com/trustpass/trustpass/internal/store"
)

// statusChangeDedupDays is the window for inline suspension/deactivation
// alerts. Toggling a flag back and forth within a day sends one email.
const statusChangeDedupDays = 1

// Notifier enforces the send-at-most-once-per-window rule and records the
// audit row after a reported-successful send. The check-then-record sequence
// is not atomic: two overlapping scans can both pass the check and both send.
// That race is accepted for this single-writer-in-practice workload.
type Notifier struct {
	store      *store.Store
	mailer     Mailer
	recipients []string
	logger     *slog.Logger

	now func() time.Time // overridable in tests
}

func NewNotifier(st *store.Store, mailer Mailer, recipients []string, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:      st,
		mailer:     mailer,
		recipients: recipients,
		logger:     logger,
		now:        time.Now,
	}
}

// WasRecentlyNotified reports whether a notification of the given type exists
// for the employee within the last windowDays. A row sent exactly windowDays
// ago no longer counts. windowDays <= 0 means any matching row ever counts.
func (n *Notifier) WasRecentlyNotified(ctx context.Context, employeeID int64, ntype model.NotificationType, windowDays int) (bool, error) {
	var since *time.Time
	if windowDays > 0 {
		cutoff := n.now().AddDate(0, 0, -windowDays)
		since = &cutoff
	}
	return n.store.HasNotificationSince(ctx, employeeID, ntype, since)
}

// Record appends the audit row for one employee. Only call after the mailer
// reported success.
func (n *Notifier) Record(ctx context.Context, employeeID int64, ntype model.NotificationType, details map[string]interface{}) error {
	blob, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal notification details: %w", err)
	}
	return n.store.CreateNotification(ctx, &model.Notification{
		EmployeeID: employeeID,
		Type:       ntype,
		SentAt:     n.now().UTC(),
		Details:    string(blob),
	})
}

// SendBatch emails the configured admin recipients one message covering all
// the given employees. It does not touch the audit trail.
func (n *Notifier) SendBatch(ctx context.Context, employees []model.Employee, ntype model.NotificationType) bool {
	if len(employees) == 0 || len(n.recipients) == 0 {
		return false
	}
	subject, text, html := statusEmail(employees, ntype)
	return n.mailer.Send(ctx, n.recipients, subject, text, html)
}

// NotifyStatusChange handles the inline path fired by employee updates that
// flip is_suspended or is_active: dedup over a 1-day window, send, and record
// on success. An unsent email is not an error; the next qualifying update
// past the window will try again.
func (n *Notifier) NotifyStatusChange(ctx context.Context, e *model.Employee, ntype model.NotificationType) error {
	already, err := n.WasRecentlyNotified(ctx, e.ID, ntype, statusChangeDedupDays)
	if err != nil {
		return err
	}
	if already {
		return nil
	}

	if !n.SendBatch(ctx, []model.Employee{*e}, ntype) {
		n.logger.Warn("status change email not sent", "employee", e.EmployeeID, "type", ntype)
		return nil
	}

	details := map[string]interface{}{"changed_at": n.now().UTC().Format(time.RFC3339)}
	if err := n.Record(ctx, e.ID, ntype, details); err != nil {
		return err
	}
	n.logger.Info("status change notification sent", "employee", e.EmployeeID, "type", ntype)
	return nil
}

// SendTest delivers a plain test message to the configured recipients so
// admins can confirm the SMTP settings.
func (n *Notifier) SendTest(ctx context.Context) bool {
	return n.mailer.Send(ctx, n.recipients,
		"TrustPass Email System Test",
		"This is a test email from your TrustPass employee verification system.",
		"<p>This is a test email from your <strong>TrustPass</strong> employee verification system.</p>")
}

// Recipients returns the configured admin alert addresses.
func (n *Notifier) Recipients() []string {
	return n.recipients
}
