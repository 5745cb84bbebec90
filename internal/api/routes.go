package api

import (
	"fmt"
	"net/http"

	apispec "github.com/USSTM/doc-gateway/api"
	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/config"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/USSTM/doc-gateway/internal/middleware"
	"github.com/USSTM/doc-gateway/internal/rbac"
	"github.com/USSTM/doc-gateway/internal/swagger"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	oapimw "github.com/oapi-codegen/nethttp-middleware"
)

// NewRouter builds the HTTP surface. Every document and user route is
// authenticated first and then checked against its declared grant.
func NewRouter(s *Server, cfg *config.Config) (http.Handler, error) {
	requestValidator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	authLimiter := middleware.NewAuthRateLimiter(&cfg.RateLimit)

	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.NewSecureHandler(cfg.IsProduction()))
	r.Use(middleware.NewCORSHandler(&cfg.CORS))

	r.Get("/health", s.HealthCheck)
	r.Get("/ready", s.ReadinessCheck)
	r.Get(swagger.DocPath, swagger.ServeSwaggerJSON)
	r.Get("/swagger/*", swagger.UIHandler())

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter, requestValidator).Post("/login", s.LoginUser)
		r.With(authLimiter, requestValidator).Post("/register", s.RegisterUser)
		r.With(s.authenticated).Post("/logout", s.LogoutUser)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticated)

		r.Get("/user/me/abilities", s.GetMyAbilities)

		r.Post("/document", s.guard(rbac.Create, rbac.ResourceDocument, s.CreateDocument))
		r.Get("/document", s.guard(rbac.Read, rbac.ResourceDocument, s.ListDocuments))
		r.Get("/document/{id}", s.guard(rbac.Read, rbac.ResourceDocument, s.GetDocument))
		r.Put("/document/{id}", s.guard(rbac.Update, rbac.ResourceDocument, s.UpdateDocument))
		r.Delete("/document/{id}", s.guard(rbac.Delete, rbac.ResourceDocument, s.DeleteDocument))

		r.Get("/role", s.guard(rbac.Read, rbac.ResourceUser, s.ListRoles))
		r.Get("/permission", s.guard(rbac.Read, rbac.ResourceUser, s.ListPermissions))
		r.Get("/user", s.guard(rbac.Read, rbac.ResourceUser, s.ListUsers))
		r.With(s.require(rbac.Create, rbac.ResourceUser), requestValidator).Post("/user/register", s.CreateUser)
	})

	return r, nil
}

// authenticated resolves the bearer token into a principal. Requests
// without a valid token never reach the guard.
func (s *Server) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := auth.WithPrincipal(r.Context(), p)
		logger := logging.FromContext(ctx).With("user_id", p.UserID)
		ctx = logging.NewContext(ctx, logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guard wraps h with a single (action, resource) requirement.
func (s *Server) guard(action rbac.Action, resource rbac.Resource, h http.HandlerFunc) http.HandlerFunc {
	return s.require(action, resource)(h).ServeHTTP
}

func (s *Server) require(action rbac.Action, resource rbac.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := auth.GetPrincipal(r.Context())
			if err := s.authorizer.Authorize(r.Context(), p, action, resource); err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// newRequestValidator checks JSON bodies against the embedded OpenAPI
// document. Authentication has already happened by the time it runs.
func newRequestValidator() (func(http.Handler) http.Handler, error) {
	spec, err := apispec.GetSwagger()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	spec.Servers = nil

	return oapimw.OapiRequestValidatorWithOptions(spec, &oapimw.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			code := CodeValidationError
			if statusCode >= http.StatusInternalServerError {
				code = CodeInternalError
			}
			NewError(code, message).Write(w, statusCode)
		},
	}), nil
}
