package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/trustpass/trustpass/internal/model"
	"github.com/trustpass/trustpass/internal/store"
)

// lastCheckKey is the settings row that gates the daily scan. Persisting it
// means a restart mid-day does not re-run the scan.
const lastCheckKey = "scanner.last_check_date"

// ScannerConfig tunes the periodic DBS expiry scan.
type ScannerConfig struct {
	// HorizonDays is how far ahead to look for expiring certificates.
	HorizonDays int
	// DedupDays is the minimum interval between repeat emails for the same
	// employee and event type.
	DedupDays int
	// Interval is how often the scanner wakes up. The calendar-day gate
	// inside RunOnce throttles real work to once per day regardless.
	Interval time.Duration
}

// DefaultScannerConfig matches the production policy: 60-day horizon, 7-day
// dedup window, hourly wake-ups.
func DefaultScannerConfig() ScannerConfig {
	return ScannerConfig{
		HorizonDays: 60,
		DedupDays:   7,
		Interval:    time.Hour,
	}
}

// ScanResult summarizes one scan pass.
type ScanResult struct {
	Expiring          []model.Employee `json:"expiring"`
	Expired           []model.Employee `json:"expired"`
	ExpiringEmailSent bool             `json:"expiring_email_sent"`
	ExpiredEmailSent  bool             `json:"expired_email_sent"`
}

// Scanner runs the daily DBS expiry check: hourly trigger, once-per-day gate.
// The frequent trigger with a coarse internal gate keeps the job robust
// against restarts at the cost of cheap extra wake-ups.
type Scanner struct {
	store    *store.Store
	notifier *Notifier
	logger   *slog.Logger
	cfg      ScannerConfig

	now func() time.Time // overridable in tests
}

func NewScanner(st *store.Store, notifier *Notifier, logger *slog.Logger, cfg ScannerConfig) *Scanner {
	if cfg.HorizonDays == 0 {
		cfg.HorizonDays = 60
	}
	if cfg.DedupDays == 0 {
		cfg.DedupDays = 7
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	return &Scanner{
		store:    st,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Start launches the scan loop: one immediate pass, then one per interval,
// until ctx is cancelled. Errors are logged and the loop continues on its
// next tick.
func (s *Scanner) Start(ctx context.Context) {
	go func() {
		s.logger.Info("expiry scanner started", "interval", s.cfg.Interval, "horizon_days", s.cfg.HorizonDays)

		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("expiry scan failed", "error", err)
		}

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("expiry scanner stopped")
				return
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					s.logger.Error("expiry scan failed", "error", err)
				}
			}
		}
	}()
}

// RunOnce performs the daily scan unless it already ran today. The gate is
// stamped after the scan regardless of email outcomes, so a failed send does
// not retry until the next calendar day; a storage failure leaves the gate
// unset and the next hourly tick retries.
func (s *Scanner) RunOnce(ctx context.Context) error {
	today := s.now().Format("2006-01-02")

	last, err := s.store.GetSetting(ctx, lastCheckKey)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if last == today {
		return nil
	}

	s.logger.Info("running daily DBS expiry check")
	result, err := s.Scan(ctx)
	if err != nil {
		return err
	}

	if err := s.store.SetSetting(ctx, lastCheckKey, today); err != nil {
		return err
	}

	s.logger.Info("daily DBS expiry check complete",
		"expiring", len(result.Expiring),
		"expired", len(result.Expired),
		"expiring_email_sent", result.ExpiringEmailSent,
		"expired_email_sent", result.ExpiredEmailSent,
	)
	return nil
}

// Scan is the ungated scan body, also used by the manual admin trigger. It
// runs both passes (expiring-soon and already-expired) through the dedup
// filter, sends at most one batch email per pass, and records one audit row
// per notified employee on send success.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	now := s.now()
	result := &ScanResult{}

	// Pass 1: certificates expiring within the horizon.
	expiringSoon, err := s.store.ListExpiringDBS(ctx, now.AddDate(0, 0, s.cfg.HorizonDays))
	if err != nil {
		return nil, err
	}
	toNotify, err := s.filterNotified(ctx, expiringSoon, model.NotificationDBSExpiry)
	if err != nil {
		return nil, err
	}
	result.Expiring = toNotify

	if len(toNotify) > 0 {
		result.ExpiringEmailSent = s.notifier.SendBatch(ctx, toNotify, model.NotificationDBSExpiry)
		if result.ExpiringEmailSent {
			if err := s.recordAll(ctx, toNotify, model.NotificationDBSExpiry); err != nil {
				return nil, err
			}
		} else {
			s.logger.Warn("failed to send DBS expiry notification email", "employees", len(toNotify))
		}
	}

	// Pass 2: certificates already past their expiry date.
	withExpiry, err := s.store.ListExpiringDBS(ctx, now)
	if err != nil {
		return nil, err
	}
	expired := withExpiry[:0:0]
	for _, e := range withExpiry {
		if e.DBSExpiryDate != nil && e.DBSExpiryDate.Before(now) {
			expired = append(expired, e)
		}
	}
	toNotify, err = s.filterNotified(ctx, expired, model.NotificationDBSExpired)
	if err != nil {
		return nil, err
	}
	result.Expired = toNotify

	if len(toNotify) > 0 {
		result.ExpiredEmailSent = s.notifier.SendBatch(ctx, toNotify, model.NotificationDBSExpired)
		if result.ExpiredEmailSent {
			if err := s.recordAll(ctx, toNotify, model.NotificationDBSExpired); err != nil {
				return nil, err
			}
		} else {
			s.logger.Warn("failed to send DBS expired notification email", "employees", len(toNotify))
		}
	}

	return result, nil
}

// filterNotified drops employees already notified of ntype inside the dedup
// window.
func (s *Scanner) filterNotified(ctx context.Context, employees []model.Employee, ntype model.NotificationType) ([]model.Employee, error) {
	out := employees[:0:0]
	for _, e := range employees {
		already, err := s.notifier.WasRecentlyNotified(ctx, e.ID, ntype, s.cfg.DedupDays)
		if err != nil {
			return nil, err
		}
		if !already {
			out = append(out, e)
		}
	}
	return out, nil
}

// recordAll writes one audit row per employee after a batch send succeeded.
func (s *Scanner) recordAll(ctx context.Context, employees []model.Employee, ntype model.NotificationType) error {
	for _, e := range employees {
		details := map[string]interface{}{}
		if e.DBSExpiryDate != nil {
			details["expiry_date"] = e.DBSExpiryDate.Format(time.RFC3339)
		}
		if err := s.notifier.Record(ctx, e.ID, ntype, details); err != nil {
			return err
		}
	}
	return nil
}
