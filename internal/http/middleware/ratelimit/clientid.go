package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// clientID resolves the identity a bucket is keyed on: the first
// X-Forwarded-For entry when the request came through a proxy, otherwise
// the remote address host.
func clientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
