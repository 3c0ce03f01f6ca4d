// Package api is the thin HTTP layer: a chi router, JSON handlers, and the
// domain-error envelope. It delegates to the domain services without embedding
// business logic.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursereq/internal/platform/metrics"
	"coursereq/internal/platform/middleware"
)

// RouterConfig carries everything the router mounts.
type RouterConfig struct {
	Users      UserService
	Courses    CourseService
	Requests   RequestService
	Verifier   middleware.TokenVerifier
	Syncer     middleware.IdentitySyncer
	AdminToken string
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewRouter wires the full HTTP surface: the bearer-authenticated /api routes,
// the admin-token course creation route, health, and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	users := NewUserHandler(cfg.Users, cfg.Logger)
	courses := NewCourseHandler(cfg.Courses, cfg.Logger)
	requests := NewRequestHandler(cfg.Requests, cfg.Logger, cfg.Metrics)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.Verifier, cfg.Syncer, cfg.Logger))
			users.Register(r)
			courses.Register(r)
			requests.Register(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdminToken(cfg.AdminToken, cfg.Logger))
			courses.RegisterAdmin(r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", cfg.Metrics.Handler())

	return r
}
