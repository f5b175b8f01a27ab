package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/trustpass/trustpass/internal/service"
)

type contextKeyAuth string

const (
	// AuthPrincipalKey is the context key for the authenticated principal.
	AuthPrincipalKey contextKeyAuth = "auth_principal"

	// SessionCookie is the HTTP-only cookie carrying the session JWT for
	// browser clients.
	SessionCookie = "trustpass_session"
)

// Principal represents the authenticated admin making the request.
type Principal struct {
	AdminID int64
	Email   string
}

// Authenticate returns an HTTP middleware that validates the request's
// session. It accepts the JWT either as a Bearer token in the Authorization
// header (API clients) or in the session cookie (browsers).
//
// On success, a Principal is attached to the request context. On failure,
// a 401 JSON error response is returned.
func Authenticate(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			} else if c, err := r.Cookie(SessionCookie); err == nil {
				token = c.Value
			}

			if token == "" {
				writeAuthError(w, r, http.StatusUnauthorized,
					"Authentication required. Provide a Bearer token or session cookie.")
				return
			}

			p, err := authSvc.ValidateJWT(r.Context(), token)
			if err != nil {
				writeAuthError(w, r, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			principal := &Principal{AdminID: p.AdminID, Email: p.Email}
			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil if no principal is present (i.e., unauthenticated request).
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid import cycle with handler package.
	// The request ID is safe to splice in: RequestID only admits UUIDs.
	body := `{"error":{"code":` + httpStatusString(status) + `,"message":"` + message + `"`
	if id := GetRequestID(r.Context()); id != "" {
		body += `,"request_id":"` + id + `"`
	}
	w.Write([]byte(body + `}}`))
}

func httpStatusString(code int) string {
	switch code {
	case 401:
		return "401"
	case 403:
		return "403"
	default:
		return "500"
	}
}
