package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"moviecatalog/proj/internal/config"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/logger"
	"moviecatalog/proj/internal/storage/credentials"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type remoteMovie struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	Rating string `json:"rating"`
	Link   string `json:"link"`
	Image  string `json:"image"`
}

// fakeRemote mimics the movies API the gateway talks to.
type fakeRemote struct {
	mu          sync.Mutex
	movies      []remoteMovie
	creates     int
	updates     int
	deletes     int
	lastFile    []byte
	deleteErr   int
	createGate  chan struct{}
	createReply any
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{movies: []remoteMovie{
		{ID: "m1", Title: "Dune", Year: 2021, Rating: "8.5", Link: "https://example.com/dune", Image: "dune.png"},
		{ID: "m2", Title: "Alien", Year: 1979, Rating: "9.0", Link: "https://example.com/alien", Image: "https://cdn.example.com/alien.jpg"},
	}}
}

func (f *fakeRemote) counts() (creates, updates, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates, f.deletes
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeRemote) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer tok" {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
		return false
	}
	return true
}

func (f *fakeRemote) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"message": "Password is incorrect"})
			return
		}
		role := "user"
		if body.Email == "admin@example.com" {
			role = "admin"
		}
		respondJSON(w, http.StatusOK, map[string]any{"token": "tok", "user": map[string]string{"role": role}})
	})
	mux.HandleFunc("GET /api/movies", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		respondJSON(w, http.StatusOK, f.movies)
	})
	mux.HandleFunc("GET /api/movies/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, m := range f.movies {
			if m.ID == r.PathValue("id") {
				respondJSON(w, http.StatusOK, m)
				return
			}
		}
		respondJSON(w, http.StatusNotFound, map[string]string{"message": "Movie not found"})
	})
	mux.HandleFunc("POST /api/movies/add", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		f.mu.Lock()
		f.creates++
		gate := f.createGate
		f.mu.Unlock()
		if gate != nil {
			<-gate
		}
		f.save(w, r, "")
	})
	mux.HandleFunc("PUT /api/movies/update/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		f.mu.Lock()
		f.updates++
		f.mu.Unlock()
		f.save(w, r, r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /api/movies/delete/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(w, r) {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.deletes++
		if f.deleteErr != 0 {
			respondJSON(w, f.deleteErr, map[string]string{"message": http.StatusText(f.deleteErr)})
			return
		}
		for i, m := range f.movies {
			if m.ID == r.PathValue("id") {
				f.movies = append(f.movies[:i], f.movies[i+1:]...)
				respondJSON(w, http.StatusOK, map[string]string{"message": "Movie deleted"})
				return
			}
		}
		respondJSON(w, http.StatusNotFound, map[string]string{"message": "Movie not found"})
	})
	return mux
}

func (f *fakeRemote) save(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"message": "bad form"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m := remoteMovie{
		ID:     id,
		Title:  r.FormValue("title"),
		Rating: r.FormValue("rating"),
		Link:   r.FormValue("link"),
		Image:  "kept.png",
	}
	if m.ID == "" {
		m.ID = "new"
	}
	if file, header, err := r.FormFile("file"); err == nil {
		f.lastFile, _ = io.ReadAll(file)
		file.Close()
		m.Image = header.Filename
	}
	f.movies = append(f.movies, m)
	if id == "" && f.createReply != nil {
		respondJSON(w, http.StatusCreated, f.createReply)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func NewTestApplication(remote http.Handler, t *testing.T) *Application {
	t.Helper()
	if remote == nil {
		remote = http.NotFoundHandler()
	}
	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		API: config.API{
			BaseURL:      srv.URL,
			Timeout:      2 * time.Second,
			ListCacheTTL: time.Minute,
		},
		Editor: config.Editor{
			PreviewDir:      t.TempDir(),
			MaxUploadBytes:  1 << 20,
			NavigationDelay: 10 * time.Millisecond,
			IdleTTL:         time.Minute,
		},
		Tasks: config.Tasks{Workers: 1, QueueSize: 4},
	}
	app := NewApplication(cfg, logger.Discard(), credentials.NewMemoryStore())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = app.shutdown(ctx)
	})
	return app
}

func loginAs(t *testing.T, app *Application, role models.Role) {
	t.Helper()
	require.NoError(t, app.sessions.Set(context.Background(), models.Session{Token: "tok", Role: role}))
}

// serve runs one request without touching t, for use from other goroutines.
func serve(app *Application, method, path string, body io.Reader, contentType string) int {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	return rec.Code
}

func do(t *testing.T, app *Application, method, path string, body io.Reader, contentType string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	var resp Response
	if rec.Header().Get("Content-Type") != "" && bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func doJSON(t *testing.T, app *Application, method, path string, v any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return do(t, app, method, path, body, "application/json")
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}
