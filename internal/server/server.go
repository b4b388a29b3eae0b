// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It decides:
//   - which URL patterns map to which handler functions
//   - which middleware runs on which routes
//   - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// cmd/server builds the long-lived resources (store, cache, token service,
// identity provider, metrics registry, tracing) and hands them over in
// Deps. New assembles services and handlers from them. This is the
// "composition root": all wiring happens here, nowhere else.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/handler"
	"github.com/sakif/faceless/internal/middleware"
	"github.com/sakif/faceless/internal/repository"
	"github.com/sakif/faceless/internal/service"
	"github.com/sakif/faceless/internal/telemetry"
)

// Config holds the plain settings the router needs.
type Config struct {
	Port               int
	Production         bool
	DevLogin           bool // mounts POST /api/dev/login; ignored in production
	AllowedOrigins     []string
	RateLimitPerMinute int
	FeedCacheTTL       time.Duration
}

// Deps are the resources the server uses but does not build.
// Cache, Provider and Tracing may be nil.
type Deps struct {
	Store    repository.Store
	Cache    cache.Store
	Tokens   *auth.TokenService
	Provider handler.IdentityProvider
	Registry *prometheus.Registry
	Tracing  *telemetry.Tracing
	Logger   *slog.Logger
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store: Start closes it after the HTTP server has
// drained, so no in-flight request ever sees a closed database.
type Server struct {
	handler http.Handler
	config  Config
	deps    Deps
	logger  *slog.Logger
}

// New wires services and handlers over deps and builds the route table.
func New(cfg Config, deps Deps) *Server {
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	s := &Server{config: cfg, deps: deps, logger: deps.Logger}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped handler (CORS, tracing, router).
// Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: unique ID per request (logged by middleware.Logger)
//  2. RealIP: client IP from proxy headers (keys the rate limiter)
//  3. Logger and Metrics: they observe the final status code
//  4. Recoverer: a panic becomes a 500 instead of killing the process
//
// Outside the router: CORS (so preflight requests never reach a handler)
// and, outermost, the tracing span.
func (s *Server) routes() http.Handler {
	var (
		store  = s.deps.Store
		logger = s.logger
	)

	// === SERVICES ===
	authService := service.NewAuthService(store, s.deps.Tokens, s.deps.Cache, logger)
	profiles := service.NewProfileService(store, s.deps.Cache, logger)
	posts := service.NewPostService(store, s.deps.Cache, s.config.FeedCacheTTL, logger)
	comments := service.NewCommentService(store, store, s.deps.Cache, s.config.FeedCacheTTL, logger)
	relations := service.NewRelationService(store, store, store, logger)

	// === HANDLERS ===
	authHandler := handler.NewAuthHandler(s.deps.Provider, authService, profiles, s.deps.Tokens, s.config.Production, logger)
	postHandler := handler.NewPostHandler(posts, logger)
	commentHandler := handler.NewCommentHandler(comments, logger)
	relationHandler := handler.NewRelationHandler(relations, logger)

	requireAuth := auth.RequireAuth(s.deps.Tokens)
	limiter := middleware.NewRateLimiter(s.config.RateLimitPerMinute)
	metrics := middleware.NewMetrics(s.deps.Registry)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handler.HandleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)

		// === Session ===
		r.Get("/login", authHandler.HandleLogin)
		r.Get("/callback", authHandler.HandleCallback)
		r.Get("/logout", authHandler.HandleLogout)
		r.Post("/logout", authHandler.HandleLogout)
		if s.config.DevLogin && !s.config.Production {
			r.Post("/dev/login", authHandler.HandleDevLogin)
		}

		// === Public reads ===
		r.Get("/posts", postHandler.HandleList)
		r.Get("/posts/{postId}", postHandler.HandleGet)
		r.Get("/posts/{postId}/comments", commentHandler.HandleList)
		r.Get("/users/{userId}/posts", postHandler.HandleListUserPosts)

		// === Authenticated ===
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/auth/user", authHandler.HandleGetUser)
			r.Patch("/auth/user", authHandler.HandleUpdateUser)
			r.Get("/auth/user/saved-posts", postHandler.HandleListSaved)

			r.Post("/posts", postHandler.HandleCreate)
			r.Post("/posts/{postId}/comments", commentHandler.HandleCreate)

			r.Post("/posts/{postId}/like", relationHandler.HandleLike())
			r.Delete("/posts/{postId}/like", relationHandler.HandleUnlike())
			r.Get("/posts/{postId}/like-status", relationHandler.HandleLikeStatus())

			r.Post("/posts/{postId}/save", relationHandler.HandleSave())
			r.Delete("/posts/{postId}/save", relationHandler.HandleUnsave())
			r.Get("/posts/{postId}/save-status", relationHandler.HandleSaveStatus())

			r.Post("/users/{userId}/subscribe", relationHandler.HandleSubscribe())
			r.Delete("/users/{userId}/subscribe", relationHandler.HandleUnsubscribe())
			r.Get("/users/{userId}/subscription-status", relationHandler.HandleSubscriptionStatus())
		})
	})

	var h http.Handler = r
	if len(s.config.AllowedOrigins) > 0 {
		// Credentials are allowed so the token cookie crosses origins;
		// that requires an explicit origin list, never "*".
		h = handlers.CORS(
			handlers.AllowedOrigins(s.config.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
			handlers.AllowCredentials(),
		)(h)
	}
	return s.deps.Tracing.Wrap(h, "faceless")
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Flush buffered trace spans
//  4. Close the store (flushes the SQLite WAL, returns pool connections)
func (s *Server) Start() error {
	defer s.deps.Store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if err := s.deps.Tracing.Shutdown(ctx); err != nil {
			s.logger.Warn("flushing traces failed", slog.String("error", err.Error()))
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
