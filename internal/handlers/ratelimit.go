package handlers

import (
	"net"
	"net/http"
	"strings"
)

// RateLimiter gates admission to abuse-prone endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// allowRequest consults the limiter with a key scoped per endpoint, so a
// burst against login does not drain the same client's refresh budget.
func allowRequest(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(rateLimitKey(r, scope))
}

func rateLimitKey(r *http.Request, scope string) string {
	ip := clientIP(r)
	if scope == "" {
		return ip
	}
	return scope + "/" + ip
}

// clientIP prefers the first hop recorded by a fronting proxy and falls back
// to the socket peer address.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
