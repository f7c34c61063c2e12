package moviesapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/logger"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(logger.Discard(), srv.URL+"/", 2*time.Second, 2), srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Login(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, loginPath, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": "tok", "user": map[string]string{"role": "admin"}})
	}))

	res, err := c.Login(context.Background(), "a@b.co", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "admin", res.Role)

	_, err = c.Login(context.Background(), "a@b.co", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Unauthorized())
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestClient_CreateMovie(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, createPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Dune", r.FormValue("title"))
		assert.Equal(t, "2021", r.FormValue("year"))
		assert.Equal(t, "8.5", r.FormValue("rating"))
		assert.Equal(t, "https://example.com", r.FormValue("link"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte("PNGDATA"), data)
		assert.Equal(t, `du"ne.png`, hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		writeJSON(w, http.StatusCreated, map[string]any{
			"_id": "m1", "title": "Dune", "year": 2021, "rating": 8.5,
			"link": "https://example.com", "image": "dune.png",
		})
	}))

	movie, err := c.CreateMovie(context.Background(), "tok", MovieForm{
		Title: "Dune", Year: "2021", Rating: "8.5", Link: "https://example.com",
		File: &models.Attachment{Filename: `du"ne.png`, ContentType: "image/png", Data: []byte("PNGDATA")},
	})
	require.NoError(t, err)
	assert.Equal(t, &models.Movie{
		ID: "m1", Title: "Dune", Year: "2021", Rating: "8.5",
		Link: "https://example.com", Image: "dune.png",
	}, movie)
}

func TestClient_UpdateMovieWithoutFile(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, updatePath+"m1", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("file")
		assert.ErrorIs(t, err, http.ErrMissingFile)
		writeJSON(w, http.StatusOK, map[string]any{"movie": map[string]any{"id": "m1", "title": r.FormValue("title")}})
	}))

	movie, err := c.UpdateMovie(context.Background(), "tok", "m1", MovieForm{Title: "Dune 2"})
	require.NoError(t, err)
	assert.Equal(t, "m1", movie.ID)
	assert.Equal(t, "Dune 2", movie.Title)
}

func TestClient_SavedWithoutRecord(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"message only", `{"message":"Movie added successfully"}`},
		{"plain text", "Movie added successfully"},
		{"empty", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(tc.body))
			}))
			form := MovieForm{Title: "Dune", Year: "2021", Rating: "8.5", Link: "https://example.com"}

			movie, err := c.CreateMovie(context.Background(), "tok", form)
			require.NoError(t, err)
			assert.Equal(t, &models.Movie{Title: "Dune", Year: "2021", Rating: "8.5", Link: "https://example.com"}, movie)

			movie, err = c.UpdateMovie(context.Background(), "tok", "m1", form)
			require.NoError(t, err)
			assert.Equal(t, "m1", movie.ID)
			assert.Equal(t, "Dune", movie.Title)
		})
	}
}

func TestClient_ServerRejects(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "title already exists"})
	}))
	_, err := c.CreateMovie(context.Background(), "tok", MovieForm{Title: "x"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "title already exists", apiErr.Error())
}

func TestClient_ErrorWithoutBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	err := c.DeleteMovie(context.Background(), "tok", "m1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.NotFound())
	assert.Equal(t, "Not Found", apiErr.Message)
}

func TestClient_DeleteMovie(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, deletePath+"m1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Movie deleted"})
	}))
	require.NoError(t, c.DeleteMovie(context.Background(), "tok", "m1"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ListMovies(t *testing.T) {
	payloads := []any{
		[]map[string]any{{"_id": "m1", "title": "A"}, {"_id": "m2", "title": "B"}},
		map[string]any{"movies": []map[string]any{{"_id": "m1", "title": "A"}, {"_id": "m2", "title": "B"}}},
	}
	for _, payload := range payloads {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, moviesPath, r.URL.Path)
			writeJSON(w, http.StatusOK, payload)
		}))
		movies, err := c.ListMovies(context.Background(), "tok")
		require.NoError(t, err)
		require.Len(t, movies, 2)
		assert.Equal(t, "m2", movies[1].ID)
	}
}

func TestClient_BadResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	_, err := c.GetMovie(context.Background(), "tok", "m1")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := New(logger.Discard(), url, time.Second, 0)

	err := c.DeleteMovie(context.Background(), "tok", "m1")
	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "DELETE "+deletePath+"m1", netErr.Op)
	assert.False(t, errors.As(err, new(*APIError)))
}

type flakyTransport struct {
	failures int
	calls    int
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(nil), Request: req}, nil
}

func TestRetryTransport(t *testing.T) {
	t.Run("retries reads", func(t *testing.T) {
		base := &flakyTransport{failures: 2}
		tr := &retryTransport{Base: base, RetryMax: 2}
		req := httptest.NewRequest(http.MethodGet, "http://api.local/api/movies", nil)
		resp, err := tr.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 3, base.calls)
	})
	t.Run("never retries mutations", func(t *testing.T) {
		base := &flakyTransport{failures: 1}
		tr := &retryTransport{Base: base, RetryMax: 2}
		req := httptest.NewRequest(http.MethodPost, "http://api.local/api/movies/add", nil)
		_, err := tr.RoundTrip(req)
		assert.Error(t, err)
		assert.Equal(t, 1, base.calls)
	})
}
