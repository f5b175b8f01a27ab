package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/trustpass/trustpass/internal/model"
	"github.com/trustpass/trustpass/internal/notify"
	"github.com/trustpass/trustpass/internal/server/middleware"
	"github.com/trustpass/trustpass/internal/service"
	"github.com/trustpass/trustpass/internal/store"
)

const sessionTTL = 24 * time.Hour

// SystemHandler serves authentication, bootstrap, dashboard stats and the
// operational endpoints (manual scan, test email).
type SystemHandler struct {
	store    *store.Store
	authSvc  *service.AuthService
	notifier *notify.Notifier
	scanner  *notify.Scanner
	logger   *slog.Logger

	// secureCookies marks session cookies Secure; off for plain-HTTP dev.
	secureCookies bool
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(st *store.Store, authSvc *service.AuthService, notifier *notify.Notifier, scanner *notify.Scanner, secureCookies bool, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		store:         st,
		authSvc:       authSvc,
		notifier:      notifier,
		scanner:       scanner,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminView struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresIn int       `json:"expires_in"`
	Admin     adminView `json:"admin"`
}

// Login authenticates an admin and starts a session. The JWT is returned in
// the body for API clients and set as an HTTP-only cookie for browsers.
// POST /api/v1/auth/session
func (h *SystemHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrAccountDisabled) {
			writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Authentication error: "+err.Error())
		return
	}

	token, err := h.authSvc.IssueJWT(r.Context(), admin.ID, admin.Email, sessionTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to issue token: "+err.Error())
		return
	}

	_ = h.store.UpdateAdminLastLogin(r.Context(), admin.ID)
	h.setSessionCookie(w, token, sessionTTL)
	h.logger.Info("admin logged in", "email", admin.Email)

	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresIn: int(sessionTTL.Seconds()),
		Admin:     adminView{ID: admin.ID, Email: admin.Email, Name: admin.Name},
	})
}

// Logout clears the session cookie. The JWT itself is stateless; API clients
// simply discard their token.
// DELETE /api/v1/auth/session
func (h *SystemHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -time.Hour)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated admin account.
// GET /api/v1/auth/me
func (h *SystemHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		writeError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	admin, err := h.store.GetAdminByEmail(r.Context(), p.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "Account no longer exists")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to load account: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, adminView{ID: admin.ID, Email: admin.Email, Name: admin.Name})
}

type setupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Setup creates the first admin account. Once any admin exists, the endpoint
// is permanently closed and returns 409.
// POST /api/v1/setup
func (h *SystemHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "Email and name are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	exists, err := h.store.HasAnyAdmin(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Setup failed: "+err.Error())
		return
	}
	if exists {
		writeError(w, r, http.StatusConflict, "Setup has already been completed")
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Setup failed: "+err.Error())
		return
	}
	admin := &model.Admin{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		IsActive:     true,
	}
	if err := h.store.CreateAdmin(r.Context(), admin); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Setup failed: "+err.Error())
		return
	}

	token, err := h.authSvc.IssueJWT(r.Context(), admin.ID, admin.Email, sessionTTL)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to issue token: "+err.Error())
		return
	}
	h.setSessionCookie(w, token, sessionTTL)
	h.logger.Info("initial admin created", "email", admin.Email)

	writeJSON(w, http.StatusCreated, sessionResponse{
		Token:     token,
		ExpiresIn: int(sessionTTL.Seconds()),
		Admin:     adminView{ID: admin.ID, Email: admin.Email, Name: admin.Name},
	})
}

// Stats returns the dashboard counters. Today's verification count is
// bounded to local midnight.
// GET /api/v1/stats
func (h *SystemHandler) Stats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats, err := h.store.EmployeeStats(r.Context(), midnight.UTC())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to compute stats: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Scan runs the DBS expiry scan immediately. The per-employee dedup window
// still applies, so hammering the button cannot spam the admins; only the
// once-per-day gate is bypassed.
// POST /api/v1/scan
func (h *SystemHandler) Scan(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.Scan(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Scan failed: "+err.Error())
		return
	}
	if result.Expiring == nil {
		result.Expiring = []model.Employee{}
	}
	if result.Expired == nil {
		result.Expired = []model.Employee{}
	}
	writeJSON(w, http.StatusOK, result)
}

// TestEmail sends a test message to the configured admin recipients so SMTP
// settings can be verified from the UI.
// POST /api/v1/email/test
func (h *SystemHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	sent := h.notifier.SendTest(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sent":       sent,
		"recipients": h.notifier.Recipients(),
	})
}

func (h *SystemHandler) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
