package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/trustpass/trustpass/internal/notify"
	"github.com/trustpass/trustpass/internal/store"
)

// newLogger builds the process logger from the log.* settings.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch viper.GetString("log.level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if viper.GetString("log.format") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// resolveDataDir returns the SQLite data directory, creating it if needed.
func resolveDataDir() (string, error) {
	dir := dataDir
	if dir == "" {
		dir = viper.GetString("db.data_dir")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".trustpass")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// openStore opens the roster store using the configured backend.
func openStore() (*store.Store, error) {
	opts := store.Options{
		Driver: viper.GetString("db.driver"),
		DSN:    viper.GetString("db.dsn"),
	}
	if opts.Driver != "postgres" {
		dir, err := resolveDataDir()
		if err != nil {
			return nil, err
		}
		opts.DataDir = dir
	}
	return store.Open(opts)
}

// buildNotifier wires the SMTP mailer and notifier from configuration.
func buildNotifier(st *store.Store, logger *slog.Logger) *notify.Notifier {
	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     viper.GetString("smtp.host"),
		Port:     viper.GetInt("smtp.port"),
		Username: viper.GetString("smtp.username"),
		Password: viper.GetString("smtp.password"),
		From:     viper.GetString("smtp.from"),
	}, logger)
	if !mailer.Enabled() {
		logger.Warn("smtp not configured - notification emails will not be delivered")
	}
	recipients := viper.GetStringSlice("notify.recipients")
	if len(recipients) == 0 {
		logger.Warn("no notification recipients configured (notify.recipients)")
	}
	return notify.NewNotifier(st, mailer, recipients, logger)
}

// buildScanner wires the expiry scanner from configuration.
func buildScanner(st *store.Store, notifier *notify.Notifier, logger *slog.Logger) *notify.Scanner {
	cfg := notify.ScannerConfig{
		HorizonDays: viper.GetInt("scanner.horizon_days"),
		DedupDays:   viper.GetInt("scanner.dedup_days"),
		Interval:    viper.GetDuration("scanner.interval"),
	}
	return notify.NewScanner(st, notifier, logger, cfg)
}

// cmdCtx returns a background context for CLI operations.
func cmdCtx() context.Context {
	return context.Background()
}
