package movies

import (
	"context"
	"errors"
	"log/slog"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/domain/filters"
	"moviecatalog/proj/internal/domain/models"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var SortSafelist = []string{"title", "year", "rating"}

type MoviesAPI interface {
	ListMovies(ctx context.Context, token string) ([]models.Movie, error)
	GetMovie(ctx context.Context, token, id string) (*models.Movie, error)
}

type SessionReader interface {
	Current() (models.Session, bool)
}

type ListResult struct {
	Movies   []models.Movie `json:"movies"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type MovieService struct {
	log         *slog.Logger
	api         MoviesAPI
	sessions    SessionReader
	uploadsBase string
	cacheTTL    time.Duration
	now         func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	cached    []models.Movie
	fetchedAt time.Time
	// bumped by every write so that a fetch started earlier is not cached
	generation uint64
}

func New(log *slog.Logger, api MoviesAPI, sessions SessionReader, uploadsBase string, cacheTTL time.Duration) *MovieService {
	return &MovieService{
		log:         log,
		api:         api,
		sessions:    sessions,
		uploadsBase: strings.TrimRight(uploadsBase, "/"),
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

// ResolveImage returns image unchanged when it is an absolute http(s) URL and
// joins it to uploadsBase otherwise.
func ResolveImage(uploadsBase, image string) string {
	if image == "" {
		return ""
	}
	if u, err := url.Parse(image); err == nil && u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") {
		return image
	}
	return strings.TrimRight(uploadsBase, "/") + "/" + strings.TrimLeft(image, "/")
}

func (s *MovieService) resolve(m models.Movie) models.Movie {
	m.Image = ResolveImage(s.uploadsBase, m.Image)
	return m
}

func (s *MovieService) token() (string, error) {
	sess, ok := s.sessions.Current()
	if !ok {
		return "", ErrNoSession
	}
	return sess.Token, nil
}

func (s *MovieService) List(ctx context.Context, f filters.Filters) (*ListResult, error) {
	const op = "movies.MovieService.List"
	log := s.log.With("op", op)
	column, err := f.SortColumn()
	if err != nil {
		return nil, err
	}
	all, err := s.fetch(ctx)
	if err != nil {
		log.Error("Error fetching movies", "errMsg", err.Error())
		return nil, err
	}
	movies := slices.Clone(all)
	if column != "" {
		sortMovies(movies, column, f.SortDirection() == filters.DescSort)
	}
	start, end := f.Window(len(movies))
	return &ListResult{
		Movies:   movies[start:end],
		Total:    len(movies),
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

// fetch returns the cached listing while it is fresh. Concurrent misses share
// one remote call.
func (s *MovieService) fetch(ctx context.Context) ([]models.Movie, error) {
	s.mu.RLock()
	if s.cached != nil && s.now().Sub(s.fetchedAt) < s.cacheTTL {
		cached := s.cached
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	v, err, _ := s.group.Do("list", func() (any, error) {
		s.mu.RLock()
		gen := s.generation
		s.mu.RUnlock()
		movies, err := s.api.ListMovies(ctx, token)
		if err != nil {
			return nil, err
		}
		resolved := make([]models.Movie, 0, len(movies))
		for _, m := range movies {
			resolved = append(resolved, s.resolve(m))
		}
		s.mu.Lock()
		if s.generation == gen {
			s.cached = resolved
			s.fetchedAt = s.now()
		}
		s.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Movie), nil
}

func sortMovies(movies []models.Movie, column string, desc bool) {
	slices.SortStableFunc(movies, func(a, b models.Movie) int {
		var c int
		switch column {
		case "title":
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case "year":
			c = compareNumeric(a.Year.Float, b.Year.Float)
		case "rating":
			c = compareNumeric(a.Rating.Float, b.Rating.Float)
		}
		if desc {
			return -c
		}
		return c
	})
}

// compareNumeric orders unparseable values after every number.
func compareNumeric(a, b func() (float64, error)) int {
	x, errX := a()
	y, errY := b()
	switch {
	case errX != nil && errY != nil:
		return 0
	case errX != nil:
		return 1
	case errY != nil:
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (s *MovieService) Get(ctx context.Context, id string) (*models.Movie, error) {
	const op = "movies.MovieService.Get"
	log := s.log.With("op", op, "id", id)
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	movie, err := s.api.GetMovie(ctx, token, id)
	if err != nil {
		var apiErr *moviesapi.APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			log.Info("movie not found")
			return nil, ErrMovieNotFound
		}
		log.Error(err.Error())
		return nil, err
	}
	resolved := s.resolve(*movie)
	return &resolved, nil
}

// Remove drops a deleted record from the cached listing.
func (s *MovieService) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	idx := slices.IndexFunc(s.cached, func(m models.Movie) bool { return m.ID == id })
	if idx < 0 {
		return false
	}
	s.cached = slices.Delete(slices.Clone(s.cached), idx, idx+1)
	return true
}

// Invalidate forces the next List to refetch.
func (s *MovieService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cached = nil
}
