// Package main is the entry point for the Faceless API server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
//  1. Read configuration
//  2. Create dependencies (logger, store, cache, auth, metrics, tracing)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points. This
// repo has three: cmd/server, cmd/seed and cmd/feedctl.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/faceless/internal/auth"
	"github.com/sakif/faceless/internal/cache"
	"github.com/sakif/faceless/internal/config"
	"github.com/sakif/faceless/internal/handler"
	"github.com/sakif/faceless/internal/logging"
	"github.com/sakif/faceless/internal/server"
	"github.com/sakif/faceless/internal/storage"
	"github.com/sakif/faceless/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "faceless:", err)
		os.Exit(1)
	}
}

// run exists so deferred cleanups execute: os.Exit skips defers, so main
// only calls it after run has returned.
func run() error {
	// === 1. CONFIGURATION ===
	// A missing .env is normal (production sets real environment variables),
	// so the error is ignored.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	logger, closeLog := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer closeLog()
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// === 3. STORAGE ===
	// The server closes the store itself after draining requests.
	store, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.DBDriver,
		SQLitePath:  cfg.DBPath,
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
	}, logger)
	if err != nil {
		return err
	}

	// === 4. CACHE ===
	// Redis when configured, otherwise a per-process map. Either way the
	// feed is cached; only multi-instance deployments need Redis.
	var feedCache cache.Store
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			store.Close()
			return err
		}
		defer rc.Close()
		feedCache = rc
		logger.Info("cache: using redis")
	} else {
		feedCache = cache.NewMemory()
		logger.Info("cache: using in-process memory")
	}

	// === 5. AUTH ===
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		store.Close()
		return err
	}

	// NIL INTERFACES:
	// Assigning a nil *auth.OIDCProvider to the interface would make a
	// non-nil interface holding a nil pointer, and the handler's
	// "provider == nil" check would miss it. Only assign a real provider.
	var provider handler.IdentityProvider
	if cfg.OIDCConfigured() {
		provider = auth.NewOIDCProvider(auth.OIDCConfig{
			AuthURL:      cfg.OIDCAuthURL,
			TokenURL:     cfg.OIDCTokenURL,
			UserInfoURL:  cfg.OIDCUserInfoURL,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
	} else {
		logger.Warn("OIDC is not configured: /api/login will return 503")
	}

	// === 6. METRICS & TRACING ===
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracing, err := telemetry.Setup(telemetry.Options{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "faceless",
		Environment: cfg.Env,
	})
	if err != nil {
		store.Close()
		return err
	}

	// === 7. CREATE AND START THE SERVER ===
	srv := server.New(server.Config{
		Port:               cfg.Port,
		Production:         cfg.IsProduction(),
		DevLogin:           cfg.AuthDevLogin,
		AllowedOrigins:     cfg.Origins(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		FeedCacheTTL:       cfg.FeedCacheTTL,
	}, server.Deps{
		Store:    store,
		Cache:    feedCache,
		Tokens:   tokens,
		Provider: provider,
		Registry: registry,
		Tracing:  tracing,
		Logger:   logger,
	})

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM).
	return srv.Start()
}
