package main

import (
	"log/slog"
	"moviecatalog/proj/internal/api/tasks"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/config"
	"moviecatalog/proj/internal/lib/validator"
	"moviecatalog/proj/internal/services"
	"moviecatalog/proj/internal/session"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

type Application struct {
	cfg       *config.Config
	log       *slog.Logger
	Http      *Http
	services  *services.Services
	sessions  *session.Manager
	tasks     *tasks.BackgroundTasks
	validator *govalidator.Validate
	decoder   *schema.Decoder
}

func NewApplication(cfg *config.Config, log *slog.Logger, store session.CredentialStore) *Application {
	client := moviesapi.New(log, cfg.API.BaseURL, cfg.API.Timeout, cfg.API.RetriesCount)
	sessions := session.New(log, store)
	bgTasks := tasks.New(log, cfg.Tasks.Workers, cfg.Tasks.QueueSize)
	bgTasks.Run()
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	app := &Application{
		cfg:       cfg,
		log:       log,
		services:  services.New(log, cfg, client, sessions),
		sessions:  sessions,
		tasks:     bgTasks,
		validator: validator.New(),
		decoder:   decoder,
		Http: &Http{
			log: log,
			cfg: cfg,
		},
	}
	return app
}
