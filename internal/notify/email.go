package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/trustpass/trustpass/internal/model"
)

// statusEmail builds the subject and both bodies for a batch notification
// covering one event type. The wording mirrors the admin-facing alert mails:
// DBS events list the expiry date per employee, status events just name them.
func statusEmail(employees []model.Employee, ntype model.NotificationType) (subject, text, htmlBody string) {
	var title, message, color string

	switch ntype {
	case model.NotificationDBSExpiry:
		subject = fmt.Sprintf("DBS Certificates Expiring Soon - %d Employee(s)", len(employees))
		title = "DBS Certificate Expiry Alert"
		message = "This is an automated notification that the following employee(s) have DBS certificates expiring within the next 2 months:"
		color = "#16A34A"
	case model.NotificationDBSExpired:
		subject = fmt.Sprintf("DBS Certificates EXPIRED - %d Employee(s)", len(employees))
		title = "DBS Certificate Expired Alert"
		message = "URGENT: The following employee(s) have DBS certificates that have already expired:"
		color = "#dc2626"
	case model.NotificationEmployeeSuspended:
		subject = fmt.Sprintf("Employee(s) Suspended - %d Employee(s)", len(employees))
		title = "Employee Suspension Alert"
		message = "This is an automated notification that the following employee(s) have been suspended:"
		color = "#ea580c"
	case model.NotificationEmployeeDeactivated:
		subject = fmt.Sprintf("Employee(s) Deactivated - %d Employee(s)", len(employees))
		title = "Employee Deactivation Alert"
		message = "This is an automated notification that the following employee(s) have been deactivated:"
		color = "#6b7280"
	}

	isDBS := ntype == model.NotificationDBSExpiry || ntype == model.NotificationDBSExpired

	closing := "Please review these employee status changes."
	if isDBS {
		closing = "Please ensure these DBS certificates are renewed before they expire to maintain compliance."
	}

	var plain strings.Builder
	fmt.Fprintf(&plain, "%s\n\nDear Admin,\n\n%s\n\n", title, message)
	for _, e := range employees {
		fmt.Fprintf(&plain, "- %s (%s)", e.FullName, e.EmployeeID)
		if isDBS && e.DBSExpiryDate != nil {
			fmt.Fprintf(&plain, " - DBS expires: %s", e.DBSExpiryDate.Format("02/01/2006"))
		}
		plain.WriteString("\n")
	}
	fmt.Fprintf(&plain, "\n%s\n\nBest regards,\nTrustPass\n", closing)

	var h strings.Builder
	fmt.Fprintf(&h, `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	fmt.Fprintf(&h, `<div style="background-color: %s; color: white; padding: 20px; text-align: center;"><h1>%s</h1></div>`, color, title)
	fmt.Fprintf(&h, `<div style="padding: 20px;"><p>Dear Admin,</p><p>%s</p>`, message)
	fmt.Fprintf(&h, `<div style="background-color: #f9f9f9; border-left: 4px solid %s; padding: 15px; margin: 20px 0;">`, color)
	for _, e := range employees {
		fmt.Fprintf(&h, `<div style="margin-bottom: 10px;"><strong>%s</strong> (%s)`,
			html.EscapeString(e.FullName), html.EscapeString(e.EmployeeID))
		if isDBS && e.DBSExpiryDate != nil {
			fmt.Fprintf(&h, `<br><span style="color: %s;">DBS Expiry: %s</span>`, color, e.DBSExpiryDate.Format("02/01/2006"))
		}
		h.WriteString(`</div>`)
	}
	fmt.Fprintf(&h, `</div><p>%s</p><p>Best regards,<br>TrustPass</p></div>`, closing)
	h.WriteString(`<div style="background-color: #f3f4f6; padding: 15px; text-align: center; font-size: 12px; color: #6b7280;">`)
	h.WriteString(`<p>This is an automated message from TrustPass.</p></div></div>`)

	return subject, plain.String(), h.String()
}
