// Command seed fills the configured database with demo users, posts,
// comments, likes, saves and subscriptions.
//
// It reads the same configuration as the server (config.yml, .env,
// environment), so `go run ./cmd/seed` seeds whatever `go run ./cmd/server`
// would serve.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/faceless/internal/config"
	"github.com/sakif/faceless/internal/logging"
	"github.com/sakif/faceless/internal/seed"
	"github.com/sakif/faceless/internal/storage"
)

func main() {
	users := flag.Int("users", 10, "number of users to create")
	posts := flag.Int("posts", 3, "posts per user")
	comments := flag.Int("comments", 2, "comments per post (negative for none)")
	seedValue := flag.Int64("seed", 0, "random seed for reproducible data (0 = random)")
	flag.Parse()

	if err := run(seed.Options{Users: *users, PostsPerUser: *posts, CommentsPerPost: *comments, Seed: *seedValue}); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(opts seed.Options) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closeLog := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.DBDriver,
		SQLitePath:  cfg.DBPath,
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DBMaxConns,
	}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = seed.New(store, opts, logger).Run(ctx)
	return err
}
