package router

import (
	"log/slog"
	"net/http"

	"github.com/andymarkow/fueltracker/internal/auth"
	"github.com/andymarkow/fueltracker/internal/logger"
	"github.com/andymarkow/fueltracker/internal/recordstore"
	"github.com/andymarkow/fueltracker/internal/server/handlers"
	"github.com/andymarkow/fueltracker/internal/session"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	log       *slog.Logger
	secret    []byte
	tokenOpts []auth.Option
	revoker   session.Revoker
	origins   []string
}

func NewRouter(store recordstore.Store, opts ...Option) chi.Router {
	r := chi.NewRouter()

	rOpts := Options{
		log:     logger.Nop(),
		secret:  []byte(""),
		revoker: session.NewMemoryRevoker(),
	}

	for _, opt := range opts {
		opt(&rOpts)
	}

	tokenAuth := jwtauth.New("HS256", rOpts.secret, nil)

	r.Use(
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Logger,
	)

	if len(rOpts.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rOpts.origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Authorization", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	h := handlers.NewHandlers(store,
		handlers.WithLogger(rOpts.log),
		handlers.WithAuth(auth.NewJWTAuth(rOpts.secret, rOpts.tokenOpts...)),
		handlers.WithRevoker(rOpts.revoker),
	)

	r.Get("/ping", h.Ping)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/login", h.UserLogin)

	r.Group(func(r chi.Router) {
		r.Use(
			jwtauth.Verifier(tokenAuth),
			jwtauth.Authenticator(tokenAuth),
			h.ActiveSession,
		)

		r.Post("/api/logout", h.UserLogout)
		r.Get("/api/me", h.UserInfo)

		r.Route("/api/manager", func(r chi.Router) {
			r.Use(h.RequireView(session.ViewManager))

			r.Post("/daily-reports", h.SubmitDailyReport)
			r.Post("/pump-reports", h.SubmitPumpReport)
			r.Post("/pump-reports/preview", h.PreviewPumpReport)
		})

		r.Route("/api/owner", func(r chi.Router) {
			r.Use(h.RequireView(session.ViewOwner))

			r.Get("/daily-reports", h.GetDailyReports)
			r.Get("/pump-reports", h.GetPumpReports)
			r.Get("/pump-reports/export", h.ExportPumpReport)
		})
	})

	return r
}

type Option func(r *Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.log = logger
	}
}

func WithSecret(secret []byte) Option {
	return func(o *Options) {
		o.secret = secret
	}
}

func WithTokenOptions(opts ...auth.Option) Option {
	return func(o *Options) {
		o.tokenOpts = opts
	}
}

// WithRevoker shares logged out tokens across server instances when backed by redis.
func WithRevoker(revoker session.Revoker) Option {
	return func(o *Options) {
		o.revoker = revoker
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(o *Options) {
		o.origins = origins
	}
}
