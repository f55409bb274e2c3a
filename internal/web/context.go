package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/invoicer/internal/core"
)

// withRequestMeta adds the client IP and User-Agent to the request context
// for audit entries.
func withRequestMeta(r *http.Request) context.Context {
	return core.WithRequestMeta(r.Context(), core.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// clientIP strips the port from RemoteAddr, which chi's RealIP has already
// replaced with X-Real-IP or X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
