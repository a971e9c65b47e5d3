package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/earshot-dev/earshot/pkg/logger"
)

// Router builds the gateway's HTTP routes
type Router struct {
	handler *Handler
	token   string
	logger  *logger.Logger
}

// NewRouter creates a new router. The token guards the send endpoint; when
// empty the endpoint answers 503, locking the API down by default.
func NewRouter(handler *Handler, token string, log *logger.Logger) *Router {
	return &Router{
		handler: handler,
		token:   token,
		logger:  log.Named("router"),
	}
}

// Routes returns the assembled HTTP handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", rt.handler.Health)
		r.Get("/ws", rt.handler.HandleWebSocket)
		r.Get("/messages", rt.handler.GetMessages)

		r.Group(func(r chi.Router) {
			r.Use(rt.requireBearerToken)
			r.Post("/send", rt.handler.SendMessage)
		})
	})

	return r
}

// requireBearerToken enforces bearer-token authentication. Responses follow
// the gateway contract: 503 when no token is configured, 401 when the header
// is missing or malformed, 403 when the token does not match.
func (rt *Router) requireBearerToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.token == "" {
			WriteError(w, http.StatusServiceUnavailable, "API not configured")
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			WriteError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		if strings.TrimPrefix(auth, "Bearer ") != rt.token {
			rt.logger.Warn("Rejected request with invalid token", logger.String("remote_addr", r.RemoteAddr))
			WriteError(w, http.StatusForbidden, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
