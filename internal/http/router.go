package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/booking-portal/internal/metrics"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Rooms    *RoomHandler
	Bookings *BookingHandler
	Stats    *StatsHandler
	Users    *UserHandler
	Health   *HealthHandler

	// Verifier authenticates bearer tokens for the protected routes.
	Verifier TokenVerifier

	Logger zerolog.Logger

	// MetricsEnabled exposes GET /metrics for Prometheus scraping.
	MetricsEnabled bool
}

// NewRouter assembles the API route tree. Everything under /api except
// health, login, registration, and the methods probe requires a session.
func NewRouter(cfg RouterConfig) http.Handler {
	rp := newResponder(cfg.Logger)
	requireAuth := RequireAuth(cfg.Verifier, rp)
	requireAdmin := RequireAdmin(rp)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(Recoverer(rp))

	if cfg.Health != nil {
		r.Get("/api/health", cfg.Health.Check)
	}
	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	if cfg.Auth != nil {
		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/login", cfg.Auth.Login)
			r.Post("/register", cfg.Auth.Register)
			r.Get("/methods", cfg.Auth.Methods)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", cfg.Auth.Logout)
				r.Get("/user", cfg.Auth.CurrentUser)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Get("/config", cfg.Auth.GetConfig)
					r.Post("/config", cfg.Auth.SetConfig)
				})
			})
		})
	}

	if cfg.Rooms != nil {
		r.Route("/api/rooms", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.Rooms.List)
			r.Get("/{roomID}", cfg.Rooms.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", cfg.Rooms.Create)
				r.Put("/{roomID}", cfg.Rooms.Update)
				r.Delete("/{roomID}", cfg.Rooms.Delete)
			})
		})
	}

	if cfg.Bookings != nil {
		r.Route("/api/bookings", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", cfg.Bookings.List)
			r.Post("/", cfg.Bookings.Create)
			r.Get("/my", cfg.Bookings.My)
			r.Get("/room/{roomID}", cfg.Bookings.RoomSchedule)
			r.Post("/check-availability", cfg.Bookings.CheckAvailability)
			r.Put("/{bookingID}", cfg.Bookings.Update)
			r.Delete("/{bookingID}", cfg.Bookings.Delete)
		})
	}

	if cfg.Stats != nil {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/api/stats", cfg.Stats.Get)
		})
	}

	if cfg.Users != nil {
		r.Route("/api/users", func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Get("/", cfg.Users.List)
		})
	}

	return r
}
