package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/arguslabs/argus"
)

// RouterConfig collects the collaborators the HTTP surface needs.
type RouterConfig struct {
	Contact *ContactHandler
	Gate    *argus.Gate

	// Throttle is optional. When set its middleware runs before the
	// contact handler's own limiter.
	Throttle *Throttle

	// AllowedOrigins for CORS. Empty means allow all.
	AllowedOrigins []string

	Logger *slog.Logger
}

// NewRouter wires the full HTTP surface: the public contact endpoint,
// the admin submission routes, health and metrics.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:       []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		OptionsSuccessStatus: http.StatusOK,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))
	r.Use(MetricsMiddleware)
	r.Use(c.Handler)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error": "Method not allowed",
		})
	})

	contact := http.Handler(http.HandlerFunc(cfg.Contact.Submit))
	if cfg.Throttle != nil {
		contact = cfg.Throttle.Middleware(contact)
	}
	r.Method(http.MethodPost, "/api/contact", contact)

	r.Route("/api/submissions", func(r chi.Router) {
		if cfg.Gate != nil {
			r.Use(cfg.Gate.Middleware)
		}
		r.Get("/", cfg.Contact.ListSubmissions)
		r.Patch("/{id}/status", cfg.Contact.UpdateStatus)
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
