package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trustpass/trustpass/internal/service"
	"github.com/trustpass/trustpass/internal/store"
)

func newAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	st, err := store.Open(store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return service.NewAuthService(st, "middleware-test-secret")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDGenerated(t *testing.T) {
	var captured string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if captured == "" {
		t.Fatal("no request ID in context")
	}
	if got := rr.Header().Get("X-Request-ID"); got != captured {
		t.Errorf("header ID %q != context ID %q", got, captured)
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	h := RequestID(okHandler())

	// A well-formed client ID is kept.
	const clientID = "0190c558-5a52-7aaa-8d2e-2f6e1a9c0b01"
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != clientID {
		t.Errorf("request ID = %q, want %q", got, clientID)
	}

	// A malformed one is replaced with a generated UUID.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", `not-a-uuid"}`)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	got := rr.Header().Get("X-Request-ID")
	if got == `not-a-uuid"}` || got == "" {
		t.Errorf("malformed client ID not replaced: %q", got)
	}
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Get("/api/v1/verify/{employeeId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/v1/verify/MCS-2024-001", nil)
	req.RemoteAddr = "192.168.1.20:54321"
	r.ServeHTTP(httptest.NewRecorder(), req)

	var line struct {
		Route     string `json:"route"`
		Path      string `json:"path"`
		IP        string `json:"ip"`
		RequestID string `json:"request_id"`
		Status    int    `json:"status"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line.Route != "/api/v1/verify/{employeeId}" {
		t.Errorf("route = %q, want the chi pattern", line.Route)
	}
	if line.Path != "/api/v1/verify/MCS-2024-001" {
		t.Errorf("path = %q", line.Path)
	}
	if line.IP != "192.168.1.20" {
		t.Errorf("ip = %q, want host without port", line.IP)
	}
	if line.RequestID == "" {
		t.Error("log line missing request_id")
	}
	if line.Status != http.StatusOK {
		t.Errorf("status = %d", line.Status)
	}
}

func TestAuthErrorCarriesRequestID(t *testing.T) {
	authSvc := newAuthService(t)
	h := RequestID(Authenticate(authSvc)(okHandler()))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var resp struct {
		Error struct {
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body.String())
	}
	if got := rr.Header().Get("X-Request-ID"); got == "" || !strings.EqualFold(resp.Error.RequestID, got) {
		t.Errorf("envelope request_id %q != header %q", resp.Error.RequestID, got)
	}
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	authSvc := newAuthService(t)
	h := Authenticate(authSvc)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuthenticateBadToken(t *testing.T) {
	authSvc := newAuthService(t)
	h := Authenticate(authSvc)(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuthenticateBearerAndCookie(t *testing.T) {
	authSvc := newAuthService(t)
	token, err := authSvc.IssueJWT(context.Background(), 7, "admin@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	var principal *Principal
	h := Authenticate(authSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = GetPrincipal(r.Context())
	}))

	// Bearer header.
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if principal == nil || principal.AdminID != 7 || principal.Email != "admin@example.com" {
		t.Fatalf("bearer principal = %+v", principal)
	}

	// Session cookie.
	principal = nil
	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), req)
	if principal == nil || principal.AdminID != 7 {
		t.Fatalf("cookie principal = %+v", principal)
	}
}

func TestGetPrincipalEmpty(t *testing.T) {
	if p := GetPrincipal(context.Background()); p != nil {
		t.Errorf("expected nil principal, got %+v", p)
	}
}

func TestPrivateNetworkOnly(t *testing.T) {
	h := PrivateNetworkOnly()(okHandler())

	tests := []struct {
		remoteAddr string
		want       int
	}{
		{"127.0.0.1:55000", http.StatusOK},
		{"10.0.3.7:55000", http.StatusOK},
		{"192.168.1.20:55000", http.StatusOK},
		{"172.16.0.4:55000", http.StatusOK},
		{"::1", http.StatusOK},
		{"203.0.113.9:55000", http.StatusForbidden},
		{"8.8.8.8:55000", http.StatusForbidden},
	}
	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tc.remoteAddr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Errorf("remote %s: status = %d, want %d", tc.remoteAddr, rr.Code, tc.want)
		}
	}
}
