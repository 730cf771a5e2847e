// Package router assembles the HTTP surface: the dialog API used by the
// voice front-end, the reception portal API, health and metrics.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nordicvoice/voicebooking/internal/dialog"
	httpmiddleware "github.com/nordicvoice/voicebooking/internal/http/middleware"
	"github.com/nordicvoice/voicebooking/internal/portal"
	"github.com/nordicvoice/voicebooking/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger         *logging.Logger
	DialogHandler  *dialog.Handler
	PortalHandler  *portal.Handler
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	// TurnRateLimit caps /api/v1 requests per second per caller, keyed by
	// the gateway's session header or the client IP. Zero disables it.
	TurnRateLimit float64
}

// New creates a new chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.DialogHandler != nil {
		r.Route("/api/v1", func(api chi.Router) {
			if cfg.TurnRateLimit > 0 {
				api.Use(httpmiddleware.RateLimit(cfg.TurnRateLimit, int(cfg.TurnRateLimit*2)))
			}
			cfg.DialogHandler.Routes(api)
		})
	}

	if cfg.PortalHandler != nil {
		r.Route("/portal/api", cfg.PortalHandler.Routes)
	}

	return r
}
