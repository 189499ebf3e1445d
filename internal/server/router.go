package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/craftpanel/internal/logging"
)

// Handler is the HTTP adapter over a ServerContext.
type Handler struct {
	sc     *ServerContext
	health *HealthChecker
	logger *slog.Logger
}

// NewHandler binds the HTTP surface to sc. health may be nil, in which case
// the probe endpoints are not mounted.
func NewHandler(sc *ServerContext, health *HealthChecker) *Handler {
	return &Handler{
		sc:     sc,
		health: health,
		logger: logging.WithService(sc.logger, "http"),
	}
}

// NewRouter registers the panel routes and the middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(h.recoverMiddleware)
	r.Use(h.loggingMiddleware)
	r.Use(h.corsMiddleware)

	if h.health != nil {
		r.Method(http.MethodGet, "/healthz", h.health.LivenessHandler())
		r.Method(http.MethodGet, "/readyz", h.health.ReadinessHandler())
		r.Method(http.MethodGet, "/healthz/detailed", h.health.DetailedHealthHandler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/user", h.currentUser)
		r.Post("/logout", h.logout)

		r.Route("/server", func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/status", h.serverStatus)
			r.Post("/start", h.startServer)
			r.Post("/stop", h.stopServer)
			r.Post("/restart", h.restartServer)
			r.Post("/command", h.executeCommand)
			r.Get("/logs", h.serverLogs)
			r.Get("/commands/history", h.commandHistory)
		})
	})

	r.Get("/auth/google", h.googleLogin)
	r.Get("/auth/callback", h.oauthCallback)

	// Routes kept for older frontends.
	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Post("/start", h.startServer)
		r.Post("/stop", h.stopServer)
		r.Post("/restart", h.restartServer)
		r.Post("/command", h.legacyCommand)
		r.Get("/logs", h.serverLogs)
	})
	r.Get("/google-login", h.googleLogin)
	r.Get("/callback", h.oauthCallback)

	h.mountFrontend(r)

	return r
}
