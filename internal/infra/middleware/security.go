package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SecurityHeaders adds OWASP-recommended security headers to all responses.
// The CSP mirrors what the web UI needs: self-hosted scripts, Google Fonts
// stylesheets, and https images.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Anti-clickjacking: prevent embedding in iframes
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// XSS protection (legacy but still useful for older browsers)
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self'; "+
				"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; "+
				"font-src 'self' https://fonts.gstatic.com; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self'")

		// HSTS: enforce HTTPS (only if using TLS)
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security",
				"max-age=31536000; includeSubDomains")
		}

		// Referrer policy: control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	RequestsPerMin int      // Maximum requests allowed per minute
	BurstSize      int      // Maximum burst of requests allowed
	TrustedProxies []string // List of trusted proxy IPs (for X-Forwarded-For)
}

// RateLimit implements token bucket rate limiting per client IP.
// ctx controls the lifetime of the stale-entry cleanup goroutine.
func RateLimit(ctx context.Context, cfg RateLimitConfig) func(http.Handler) http.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	clients := make(map[string]*client)
	mu := &sync.Mutex{}

	// Cleanup goroutine: remove stale client entries.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				mu.Lock()
				for ip, c := range clients {
					if time.Since(c.lastSeen) > 3*time.Minute {
						delete(clients, ip)
					}
				}
				mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r, cfg.TrustedProxies)

			mu.Lock()
			if _, exists := clients[ip]; !exists {
				// Spread the per-minute allowance over 60 seconds.
				clients[ip] = &client{
					limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerMin)/60.0, cfg.BurstSize),
				}
			}
			clients[ip].lastSeen = time.Now()
			limiter := clients[ip].limiter
			mu.Unlock()

			if !limiter.Allow() {
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Proxy headers (X-Forwarded-For, X-Real-IP) are only trusted when the
// direct TCP peer is a configured trusted proxy; this prevents spoofed
// headers from bypassing the rate limiter.
func getClientIP(r *http.Request, trustedProxies []string) string {
	directIP := r.RemoteAddr
	if idx := strings.LastIndex(directIP, ":"); idx > 0 {
		directIP = directIP[:idx]
	}

	// Secure default: no trusted proxies, no header trust.
	if len(trustedProxies) == 0 {
		return directIP
	}

	isTrustedProxy := false
	for _, trustedIP := range trustedProxies {
		if directIP == trustedIP {
			isTrustedProxy = true
			break
		}
	}
	if !isTrustedProxy {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the list is the original client.
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return directIP
}
