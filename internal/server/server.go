// Package server exposes the issues and whitelist page state to a browser
// front end as JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmenanno/media-janitor/internal/config"
	"github.com/mmenanno/media-janitor/internal/dashboard"
	"github.com/mmenanno/media-janitor/internal/database"
	"github.com/mmenanno/media-janitor/internal/logging"
	"github.com/mmenanno/media-janitor/internal/notify"
)

// RouteTracker receives the front end's current route
type RouteTracker interface {
	SetRoute(route string)
}

// Options wires a Server
type Options struct {
	Config    *config.Config
	Issues    *dashboard.IssuesPage
	Whitelist *dashboard.WhitelistPage
	Toasts    *notify.Center
	DB        *database.DB
	Session   *Session
	Routes    RouteTracker
	Version   string
}

// Server holds the application state
type Server struct {
	config    *config.Config
	issues    *dashboard.IssuesPage
	whitelist *dashboard.WhitelistPage
	toasts    *notify.Center
	db        *database.DB
	session   *Session
	routes    RouteTracker
	limiter   *RateLimiter
	version   string
}

// New creates a server instance
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	session := opts.Session
	if session == nil {
		session = NewSession()
	}
	toasts := opts.Toasts
	if toasts == nil {
		toasts = notify.NewCenter(0)
	}
	return &Server{
		config:    cfg,
		issues:    opts.Issues,
		whitelist: opts.Whitelist,
		toasts:    toasts,
		db:        opts.DB,
		session:   session,
		routes:    opts.Routes,
		limiter:   NewRateLimiter(cfg.RequestsPerSecond, cfg.BurstSize),
		version:   opts.Version,
	}
}

// Handler builds the routed handler with its middleware chain
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(Recovery)
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger)
	r.Use(RequestSizeLimit)
	r.Use(CORS(s.config.CORSAllowedOrigin))
	r.Use(s.trackRoute)

	r.Get("/health", s.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware)

		r.Get("/issues", s.HandleIssues)
		r.Post("/issues/refresh", s.HandleRefresh)
		r.Post("/issues/{id}/actions/{kind}", s.HandleAction)
		r.Get("/inflight", s.HandleInFlight)

		r.Get("/whitelist/{kind}", s.HandleWhitelist)
		r.Delete("/whitelist/{kind}/{id}", s.HandleWhitelistRemove)

		r.Get("/toasts", s.HandleToasts)
		r.Get("/history", s.HandleHistory)
		r.Get("/session", s.HandleSession)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, port int) error {
	log := logging.Component("server")
	addr := fmt.Sprintf(":%d", port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.ActionTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	s.limiter.StartPeriodicCleanup(cleanupCtx, time.Hour)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("server is ready to handle requests")
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info().Msg("starting graceful shutdown")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		if s.issues != nil {
			s.issues.Wait()
		}

		log.Info().Msg("server stopped gracefully")
		return nil
	}
}
