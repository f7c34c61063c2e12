package services

import (
	"context"
	"log/slog"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/config"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/editor"
	"moviecatalog/proj/internal/services/auth"
	"moviecatalog/proj/internal/services/deletion"
	"moviecatalog/proj/internal/services/movies"
	"moviecatalog/proj/internal/services/submission"
	"moviecatalog/proj/internal/session"
	"sync"
)

type Services struct {
	Auth     *auth.AuthService
	Movies   *movies.MovieService
	Deletion *deletion.Gate
	Editors  *editor.Registry

	log *slog.Logger
	api submission.MovieAPI

	formMu sync.Mutex
	form   *submission.Controller
}

func New(log *slog.Logger, cfg *config.Config, client *moviesapi.Client, sessions *session.Manager) *Services {
	movieService := movies.New(log, client, sessions, cfg.API.UploadsBase(), cfg.API.ListCacheTTL)
	api := &listingAwareAPI{MovieAPI: client, movies: movieService}
	return &Services{
		Auth:     auth.New(log, client, sessions),
		Movies:   movieService,
		Deletion: deletion.New(log, client, sessions, func(id string) { movieService.Remove(id) }),
		Editors: editor.NewRegistry(log, api, editor.Options{
			PreviewDir:      cfg.Editor.PreviewDir,
			MaxUploadBytes:  cfg.Editor.MaxUploadBytes,
			NavigationDelay: cfg.Editor.NavigationDelay,
		}, cfg.Editor.IdleTTL),
		log: log,
		api: api,
	}
}

// FormSubmission returns the controller behind the one-shot form endpoints.
// It is shared so that a second post while one is in flight is refused; once
// a post succeeds the next call starts a fresh form.
func (s *Services) FormSubmission() *submission.Controller {
	s.formMu.Lock()
	defer s.formMu.Unlock()
	if s.form == nil || s.form.State() == submission.StateSuccess {
		if s.form != nil {
			s.form.Close()
		}
		s.form = submission.New(s.log, s.api, nil, 0)
	}
	return s.form
}

// listingAwareAPI drops the cached listing after every successful write.
type listingAwareAPI struct {
	submission.MovieAPI
	movies *movies.MovieService
}

func (a *listingAwareAPI) CreateMovie(ctx context.Context, token string, form moviesapi.MovieForm) (*models.Movie, error) {
	movie, err := a.MovieAPI.CreateMovie(ctx, token, form)
	if err == nil {
		a.movies.Invalidate()
	}
	return movie, err
}

func (a *listingAwareAPI) UpdateMovie(ctx context.Context, token, id string, form moviesapi.MovieForm) (*models.Movie, error) {
	movie, err := a.MovieAPI.UpdateMovie(ctx, token, id, form)
	if err == nil {
		a.movies.Invalidate()
	}
	return movie, err
}
