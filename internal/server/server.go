package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/trustpass/trustpass/internal/handler"
	"github.com/trustpass/trustpass/internal/notify"
	"github.com/trustpass/trustpass/internal/openapi"
	"github.com/trustpass/trustpass/internal/server/middleware"
	"github.com/trustpass/trustpass/internal/service"
	"github.com/trustpass/trustpass/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// PublicBaseURL is the externally reachable origin embedded in badge QR
	// codes and the OpenAPI document.
	PublicBaseURL string
	// UploadsDir is where employee photos are stored.
	UploadsDir string
	// PrivateOnly restricts the admin surface to loopback and RFC 1918
	// addresses. Verification routes stay public regardless.
	PrivateOnly bool
	// SecureCookies marks session cookies Secure. Off for plain-HTTP dev.
	SecureCookies bool
	// LoginRatePerMinute and VerifyRatePerMinute are per-IP limits on the
	// unauthenticated endpoints.
	LoginRatePerMinute  int
	VerifyRatePerMinute int

	Version string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:                "0.0.0.0",
		Port:                8080,
		ShutdownTimeout:     30 * time.Second,
		CORSOrigins:         []string{"*"},
		PublicBaseURL:       "http://localhost:8080",
		UploadsDir:          "uploads",
		SecureCookies:       true,
		LoginRatePerMinute:  10,
		VerifyRatePerMinute: 60,
		Version:             "dev",
	}
}

// Server is the top-level HTTP server for TrustPass. It owns the Chi router,
// the roster store, the authentication service, and the notification side
// of the admin API.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	notifier   *notify.Notifier
	scanner    *notify.Scanner
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, notifier *notify.Notifier, scanner *notify.Scanner, logger *slog.Logger) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		store:    st,
		authSvc:  authSvc,
		notifier: notifier,
		scanner:  scanner,
		logger:   logger,
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setupRouter() error {
	uploads, err := handler.NewUploadStore(s.cfg.UploadsDir)
	if err != nil {
		return err
	}

	employeeHandler := handler.NewEmployeeHandler(s.store, s.notifier, uploads, s.logger)
	qrHandler := handler.NewQRHandler(s.store, s.cfg.PublicBaseURL)
	sysHandler := handler.NewSystemHandler(s.store, s.authSvc, s.notifier, s.scanner, s.cfg.SecureCookies, s.logger)

	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	// --- OpenAPI document (no auth required) ---
	spec := openapi.GenerateSpec(s.cfg.PublicBaseURL, s.cfg.Version)
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spec)
	})

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {

		// Public verification. Stays outside the private-network fence so
		// badge checks work from anywhere.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.VerifyRatePerMinute))
			r.Get("/verify/{employeeId}", employeeHandler.Verify)
		})

		// Session bootstrap and teardown.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.LoginRatePerMinute))
			r.Post("/auth/session", sysHandler.Login)
			r.Post("/setup", sysHandler.Setup)
		})
		r.Delete("/auth/session", sysHandler.Logout)

		// Admin surface.
		r.Group(func(r chi.Router) {
			if s.cfg.PrivateOnly {
				r.Use(middleware.PrivateNetworkOnly())
			}
			r.Use(middleware.Authenticate(s.authSvc))

			r.Get("/auth/me", sysHandler.Me)

			r.Get("/employees", employeeHandler.List)
			r.Post("/employees", employeeHandler.Create)
			r.Get("/employees/{id}", employeeHandler.Get)
			r.Patch("/employees/{id}", employeeHandler.Update)
			r.Delete("/employees/{id}", employeeHandler.Delete)
			r.Get("/employees/{id}/qr-url", qrHandler.URL)
			r.Get("/employees/{id}/qr.png", qrHandler.Image)

			r.Get("/stats", sysHandler.Stats)
			r.Post("/scan", sysHandler.Scan)
			r.Post("/email/test", sysHandler.TestEmail)
		})
	})

	// --- Employee photos (admin-only) ---
	r.Group(func(r chi.Router) {
		if s.cfg.PrivateOnly {
			r.Use(middleware.PrivateNetworkOnly())
		}
		r.Use(middleware.Authenticate(s.authSvc))
		r.Handle("/uploads/*", uploads.Handler())
	})

	s.router = r
	return nil
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded: " + err.Error()
		httpStatus = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests. The background expiry scanner shares the same lifetime.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.scanner.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "version", s.cfg.Version)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
