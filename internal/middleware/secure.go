package middleware

import (
	"net/http"

	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/unrolled/secure"
)

// NewSecureHandler sets the standard security response headers. HTTPS
// redirects are only enforced in production.
func NewSecureHandler(isProduction bool) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        isProduction,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !isProduction,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sm.Process(w, r); err != nil {
				logging.FromContext(r.Context()).Warn("secure headers blocked request", "error", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
