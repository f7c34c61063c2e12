package main

import (
	"context"
	"flag"
	"io"
	"moviecatalog/proj/internal/config"
	"moviecatalog/proj/internal/lib/logger"
	"moviecatalog/proj/internal/session"
	"moviecatalog/proj/internal/storage/credentials"
	"os"
	"time"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", "config/local.yml", "path to config file")

	flag.Parse()
	cfg := config.MustLoad(*cfgPath)
	log := logger.SetupLogger(cfg.Debug)
	store, closer := newCredentialStore(cfg)
	log.Info("credential store ready", "store", cfg.Session.Store)
	app := NewApplication(cfg, log, store)
	if err := run(app, closer); err != nil {
		log.Error("shutting down the server", "reason", err.Error())
		os.Exit(1)
	}
}

// run restores the saved session and serves until shutdown. The credential
// store is closed on every return path.
func run(app *Application, closer io.Closer) error {
	defer func() {
		if err := closer.Close(); err != nil {
			app.log.Warn("failed to close credential store", "errMsg", err.Error())
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := app.sessions.Restore(ctx); err != nil {
		app.log.Error("failed to restore session", "errMsg", err.Error())
	}
	cancel()
	return app.serve()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newCredentialStore(cfg *config.Config) (session.CredentialStore, io.Closer) {
	switch cfg.Session.Store {
	case "memory":
		return credentials.NewMemoryStore(), nopCloser{}
	case "redis":
		client := credentials.NewRedisClient(cfg.Session.Redis.Addr, cfg.Session.Redis.Password, cfg.Session.Redis.DB)
		store := credentials.NewRedisStore(client, cfg.Session.Redis.KeyPrefix)
		return store, store
	default:
		return credentials.NewFileStore(cfg.Session.FilePath), nopCloser{}
	}
}
