package movies

import (
	"context"
	"errors"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/domain/filters"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/logger"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	movies []models.Movie
	calls  atomic.Int32
	gate   chan struct{}
	err    error
}

func (f *fakeAPI) ListMovies(ctx context.Context, token string) ([]models.Movie, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Movie(nil), f.movies...), nil
}

func (f *fakeAPI) GetMovie(ctx context.Context, token, id string) (*models.Movie, error) {
	for _, m := range f.movies {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, &moviesapi.APIError{Status: http.StatusNotFound, Message: "Movie not found"}
}

type sessions struct{ sess models.Session }

func (s sessions) Current() (models.Session, bool) { return s.sess, !s.sess.IsZero() }

var loggedIn = sessions{sess: models.Session{Token: "tok", Role: models.RoleUser}}

func sample() []models.Movie {
	return []models.Movie{
		{ID: "m1", Title: "dune", Year: "2021", Rating: "8.5", Image: "dune.png"},
		{ID: "m2", Title: "Alien", Year: "1979", Rating: "9.0", Image: "https://cdn.example.com/alien.jpg"},
		{ID: "m3", Title: "Heat", Year: "1995", Rating: "10", Image: "/heat.png"},
		{ID: "m4", Title: "Blade Runner", Year: "1982", Rating: "", Image: ""},
	}
}

func newService(api *fakeAPI, ttl time.Duration) *MovieService {
	return New(logger.Discard(), api, loggedIn, "https://api.example.com/uploads/", ttl)
}

func ids(movies []models.Movie) []string {
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func TestResolveImage(t *testing.T) {
	base := "https://api.example.com/uploads"
	testCases := []struct {
		image    string
		expected string
	}{
		{"dune.png", base + "/dune.png"},
		{"/dune.png", base + "/dune.png"},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"ftp://cdn.example.com/a.jpg", base + "/ftp://cdn.example.com/a.jpg"},
		{"", ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ResolveImage(base+"/", tc.image), tc.image)
	}
}

func TestList_ResolvesImages(t *testing.T) {
	s := newService(&fakeAPI{movies: sample()}, time.Minute)
	res, err := s.List(context.Background(), filters.New(SortSafelist...))
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, "https://api.example.com/uploads/dune.png", res.Movies[0].Image)
	assert.Equal(t, "https://cdn.example.com/alien.jpg", res.Movies[1].Image)
	assert.Equal(t, "https://api.example.com/uploads/heat.png", res.Movies[2].Image)
	assert.Equal(t, "", res.Movies[3].Image)
}

func TestList_SortAndPaginate(t *testing.T) {
	s := newService(&fakeAPI{movies: sample()}, time.Minute)
	testCases := []struct {
		sort     string
		expected []string
	}{
		{"title", []string{"m2", "m4", "m1", "m3"}},
		{"-title", []string{"m3", "m1", "m4", "m2"}},
		{"year", []string{"m2", "m4", "m3", "m1"}},
		{"-rating", []string{"m4", "m3", "m2", "m1"}},
		{"rating", []string{"m1", "m2", "m3", "m4"}},
	}
	for _, tc := range testCases {
		f := filters.New(SortSafelist...)
		f.Sort = tc.sort
		res, err := s.List(context.Background(), f)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, ids(res.Movies), tc.sort)
	}

	f := filters.New(SortSafelist...)
	f.Sort = "title"
	f.Page, f.PageSize = 2, 3
	res, err := s.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, []string{"m3"}, ids(res.Movies))
	assert.Equal(t, 4, res.Total)

	f.Page = 5
	res, err = s.List(context.Background(), f)
	require.NoError(t, err)
	assert.Empty(t, res.Movies)
}

func TestList_UnknownSort(t *testing.T) {
	api := &fakeAPI{movies: sample()}
	s := newService(api, time.Minute)
	f := filters.New(SortSafelist...)
	f.Sort = "link"
	_, err := s.List(context.Background(), f)
	assert.ErrorIs(t, err, filters.ErrUnknownSortField)
	assert.Equal(t, int32(0), api.calls.Load())
}

func TestList_CachesAndCoalesces(t *testing.T) {
	api := &fakeAPI{movies: sample(), gate: make(chan struct{})}
	s := newService(api, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.List(context.Background(), filters.New(SortSafelist...))
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(api.gate)
	wg.Wait()
	assert.Equal(t, int32(1), api.calls.Load())

	_, err := s.List(context.Background(), filters.New(SortSafelist...))
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.calls.Load())

	s.Invalidate()
	_, err = s.List(context.Background(), filters.New(SortSafelist...))
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestList_WriteDuringFetchIsNotUndone(t *testing.T) {
	writes := map[string]func(s *MovieService){
		"invalidate": func(s *MovieService) { s.Invalidate() },
		"remove":     func(s *MovieService) { s.Remove("m1") },
	}
	for name, write := range writes {
		t.Run(name, func(t *testing.T) {
			api := &fakeAPI{movies: sample(), gate: make(chan struct{})}
			s := newService(api, time.Minute)

			done := make(chan struct{})
			go func() {
				defer close(done)
				_, err := s.List(context.Background(), filters.New())
				assert.NoError(t, err)
			}()
			require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
			write(s)
			close(api.gate)
			<-done

			api.gate = nil
			api.movies = append(api.movies, models.Movie{ID: "m5", Title: "Up"})
			res, err := s.List(context.Background(), filters.New())
			require.NoError(t, err)
			assert.Equal(t, int32(2), api.calls.Load())
			assert.Contains(t, ids(res.Movies), "m5")
		})
	}
}

func TestList_CacheExpires(t *testing.T) {
	api := &fakeAPI{movies: sample()}
	s := newService(api, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	_, err := s.List(context.Background(), filters.New())
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = s.List(context.Background(), filters.New())
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.calls.Load())
}

func TestList_Errors(t *testing.T) {
	api := &fakeAPI{err: &moviesapi.NetworkError{Op: "GET", Err: errors.New("refused")}}
	s := newService(api, time.Minute)
	_, err := s.List(context.Background(), filters.New())
	var netErr *moviesapi.NetworkError
	assert.ErrorAs(t, err, &netErr)

	anon := New(logger.Discard(), api, sessions{}, "", time.Minute)
	_, err = anon.List(context.Background(), filters.New())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRemove(t *testing.T) {
	api := &fakeAPI{movies: sample()}
	s := newService(api, time.Minute)
	before, err := s.List(context.Background(), filters.New())
	require.NoError(t, err)

	assert.True(t, s.Remove("m1"))
	assert.False(t, s.Remove("m1"))
	after, err := s.List(context.Background(), filters.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3", "m4"}, ids(after.Movies))
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, ids(before.Movies))
	assert.Equal(t, int32(1), api.calls.Load())
}

func TestGet(t *testing.T) {
	s := newService(&fakeAPI{movies: sample()}, time.Minute)
	movie, err := s.Get(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/uploads/dune.png", movie.Image)

	_, err = s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMovieNotFound)
}
