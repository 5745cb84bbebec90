package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/go-chi/cors"
)

// Headers browsers must be able to read for downloads and support tickets.
var alwaysExposed = []string{"Content-Disposition", RequestIDHeader}

// NewCORSHandler builds the CORS layer. Credentials are switched off when
// the origin list contains a wildcard.
func NewCORSHandler(cfg *config.CORSConfig) func(http.Handler) http.Handler {
	credentials := cfg.AllowCredentials
	if credentials && slices.Contains(cfg.AllowedOrigins, "*") {
		logging.Warn("Disabling CORS credentials for wildcard origin")
		credentials = false
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   withHeaders(cfg.AllowedHeaders, "Authorization", "Content-Type"),
		ExposedHeaders:   withHeaders(cfg.ExposedHeaders, alwaysExposed...),
		AllowCredentials: credentials,
		MaxAge:           cfg.MaxAge,
	})
}

func withHeaders(configured []string, required ...string) []string {
	out := slices.Clone(configured)
	for _, h := range required {
		if !slices.ContainsFunc(out, func(c string) bool { return strings.EqualFold(c, h) }) {
			out = append(out, h)
		}
	}
	return out
}
