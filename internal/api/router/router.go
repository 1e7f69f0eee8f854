package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medibook/medibook-platform/internal/api/respond"
	"github.com/medibook/medibook-platform/internal/appointments"
	"github.com/medibook/medibook-platform/internal/calendarsync"
	httpmiddleware "github.com/medibook/medibook-platform/internal/http/middleware"
	"github.com/medibook/medibook-platform/internal/notifications"
	"github.com/medibook/medibook-platform/internal/providers"
	"github.com/medibook/medibook-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger               *logging.Logger
	AppointmentsHandler  *appointments.Handler
	ProvidersHandler     *providers.Handler
	NotificationsHandler *notifications.Handler
	CalendarHandler      *calendarsync.Handler
	MetricsHandler       http.Handler
	JWTSecret            string
	CORSAllowedOrigins   []string

	// Per-IP request rate limiting. Zero disables it.
	RateLimitPerSecond int
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(float64(cfg.RateLimitPerSecond), cfg.RateLimitBurst))
	}

	// Public endpoints (health checks, provider directory)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.ProvidersHandler != nil {
			public.Get("/providers", cfg.ProvidersHandler.List)
			public.Get("/providers/{doctorID}", cfg.ProvidersHandler.Get)
		}
	})

	// Authenticated API routes
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.ActorJWT(cfg.JWTSecret))

		api.Route("/appointments", func(r chi.Router) {
			r.Post("/", cfg.AppointmentsHandler.Create)
			r.Get("/", cfg.AppointmentsHandler.List)
			r.Get("/me", cfg.AppointmentsHandler.List)
			r.Get("/available/{doctorID}/{date}", cfg.AppointmentsHandler.Available)
			r.Get("/{id}", cfg.AppointmentsHandler.Get)
			r.Patch("/{id}/status", cfg.AppointmentsHandler.UpdateStatus)
			r.Delete("/{id}", cfg.AppointmentsHandler.Delete)
			if cfg.CalendarHandler != nil {
				r.Get("/{id}/calendar.ics", cfg.CalendarHandler.Export)
			}
		})

		if cfg.ProvidersHandler != nil {
			api.Route("/providers/me", func(r chi.Router) {
				r.Put("/", cfg.ProvidersHandler.UpsertMe)
				r.Put("/availability", cfg.ProvidersHandler.PutAvailability)
				r.Get("/availability", cfg.ProvidersHandler.GetAvailability)
			})
		}

		if cfg.NotificationsHandler != nil {
			api.Route("/notifications", func(r chi.Router) {
				r.Get("/", cfg.NotificationsHandler.List)
				r.Patch("/{id}/read", cfg.NotificationsHandler.MarkRead)
				r.Post("/read-all", cfg.NotificationsHandler.MarkAllRead)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", nil)
}
