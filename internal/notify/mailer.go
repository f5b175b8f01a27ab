// Package notify decides who gets emailed about employee events, when, and
// at most how often. It owns the notification dedup rules, the batch email
// content, and the daily DBS expiry scan.
package notify

import (
	"context"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// Mailer delivers one logical message to a set of recipients. The boolean
// result is deliberately coarse: false means at least one recipient was not
// reached, with no per-recipient detail surfaced.
type Mailer interface {
	Send(ctx context.Context, to []string, subject, text, html string) bool
}

// SMTPConfig carries the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail over SMTP. Each recipient gets an individual message;
// the first delivery failure marks the whole batch as failed.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

func NewSMTPMailer(cfg SMTPConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Enabled reports whether outbound mail is configured at all.
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Host != ""
}

func (m *SMTPMailer) Send(ctx context.Context, to []string, subject, text, html string) bool {
	if !m.Enabled() {
		m.logger.Info("email sending skipped, no SMTP host configured", "subject", subject)
		return false
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		m.logger.Error("smtp client setup failed", "error", err)
		return false
	}
	defer client.Close()

	ok := true
	for _, rcpt := range to {
		msg := mail.NewMsg()
		if err := msg.From(m.cfg.From); err != nil {
			m.logger.Error("invalid from address", "from", m.cfg.From, "error", err)
			return false
		}
		if err := msg.To(rcpt); err != nil {
			m.logger.Error("invalid recipient address", "to", rcpt, "error", err)
			ok = false
			continue
		}
		msg.Subject(subject)
		msg.SetBodyString(mail.TypeTextPlain, text)
		if html != "" {
			msg.AddAlternativeString(mail.TypeTextHTML, html)
		}

		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			m.logger.Error("email send failed", "to", rcpt, "subject", subject, "error", err)
			ok = false
			continue
		}
	}

	if ok {
		m.logger.Info("email sent", "recipients", len(to), "subject", subject)
	}
	return ok
}
