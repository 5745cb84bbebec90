package middleware

import (
	"net/http"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/go-chi/httprate"
)

// NewAuthRateLimiter limits the public auth routes per client IP.
func NewAuthRateLimiter(cfg *config.RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(cfg.AuthRequests, cfg.AuthWindow,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return getClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"RATE_LIMITED","message":"Too many requests"}}`))
		}),
	)
}
