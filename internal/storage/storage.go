// Package storage opens whichever repository backend the configuration names.
//
// Callers get a repository.Store back and never import a backend package
// directly, so switching from SQLite to Postgres is a config change only.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/faceless/internal/repository"
	"github.com/sakif/faceless/internal/repository/postgres"
	"github.com/sakif/faceless/internal/repository/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options is the storage slice of the application config.
type Options struct {
	Driver      string
	SQLitePath  string
	DatabaseURL string
	MaxConns    int
}

// Open returns a migrated, ready-to-use store.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (repository.Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if opts.SQLitePath != ":memory:" {
			// MkdirAll is like `mkdir -p`: it succeeds if the directory exists.
			if dir := filepath.Dir(opts.SQLitePath); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("storage: creating database directory %s: %w", dir, err)
				}
			}
		}
		db, err := sqlite.New(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", slog.String("driver", DriverSQLite), slog.String("path", opts.SQLitePath))
		return db, nil

	case DriverPostgres:
		db, err := postgres.Open(ctx, postgres.Config{
			URL:      opts.DatabaseURL,
			MaxConns: int32(opts.MaxConns),
		}, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("storage opened", slog.String("driver", DriverPostgres))
		return db, nil
	}

	return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
}
