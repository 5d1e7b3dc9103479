package http

import (
	"net"
	"net/http"
	"strings"
)

// clientIP returns the public address of the client behind r: the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr. Loopback, private and
// unparseable addresses yield "", which makes the IP lookup fall back to the
// server's own public address.
func clientIP(r *http.Request) string {
	candidates := make([]string, 0, 3)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		candidates = append(candidates, xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	candidates = append(candidates, host)

	for _, c := range candidates {
		ip := net.ParseIP(strings.TrimSpace(c))
		if ip == nil {
			continue
		}
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return ""
		}
		return ip.String()
	}
	return ""
}
