package middleware

import (
	"net"
	"net/http"
)

// PrivateNetworkOnly returns an HTTP middleware that rejects requests from
// public IP addresses with 403. It admits loopback and RFC 1918/4193 ranges,
// so the admin surface can be confined to the site network while the public
// verification routes are mounted outside this middleware.
//
// Must run after RealIP so forwarded addresses are honored.
func PrivateNetworkOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				// RealIP rewrites RemoteAddr to a bare IP with no port.
				host = r.RemoteAddr
			}
			ip := net.ParseIP(host)
			if ip == nil || !(ip.IsLoopback() || ip.IsPrivate()) {
				writeAuthError(w, r, http.StatusForbidden, "Access restricted to the private network")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
