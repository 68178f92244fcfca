package auth

import (
	"net"
	"net/http"
	"strings"

	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/utils"
)

// SecConfig carries the network policy for the HTTP surface: one allowed
// origin (credentials permitted) and per-IP rate limits.
type SecConfig struct {
	AllowedOrigin string
	RPS           float64
	Burst         int
}

// GatekeeperMiddleware applies CORS headers, answers preflight requests,
// and rate-limits callers by client IP. Health probes are exempt from rate
// limiting. The live websocket upgrade enforces origin separately in the
// hub; this middleware covers the plain HTTP surface.
func GatekeeperMiddleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			// cors: single configured origin, credentials allowed
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// probes stay reachable regardless of limits
			if (r.URL.Path == "/healthz" || r.URL.Path == "/readyz") && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			if !limiters.Allow(clientIP(r)) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin, allowed string) bool {
	if allowed == "" {
		return false
	}
	return allowed == "*" || strings.EqualFold(allowed, origin)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
