package moviesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"moviecatalog/proj/internal/domain/fields"
	"moviecatalog/proj/internal/domain/models"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

const (
	loginPath  = "/api/users/login"
	moviesPath = "/api/movies"
	createPath = "/api/movies/add"
	updatePath = "/api/movies/update/"
	deletePath = "/api/movies/delete/"

	maxErrorBody = 64 << 10
	maxBody      = 32 << 20
)

// Client calls the remote movies API over HTTP.
type Client struct {
	log        *slog.Logger
	baseURL    string
	httpClient *http.Client
}

/*
New creates a movies API client.

It takes a logger, the API base URL, a per-request timeout and the number of
retries for idempotent reads. Mutations are never retried.
*/
func New(log *slog.Logger, baseURL string, timeout time.Duration, retriesCount int) *Client {
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &retryTransport{
				Base:     http.DefaultTransport,
				RetryMax: retriesCount,
				Backoff:  200 * time.Millisecond,
			},
		},
	}
}

// MovieForm is the multipart body of a create or update request.
type MovieForm struct {
	Title  string
	Year   string
	Rating string
	Link   string
	File   *models.Attachment
}

func FormFromDraft(d *models.MovieDraft) MovieForm {
	return MovieForm{
		Title:  d.Title,
		Year:   d.Year,
		Rating: d.Rating,
		Link:   d.Link,
		File:   d.Attachment,
	}
}

type LoginResult struct {
	Token string
	Role  string
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		Role string `json:"role"`
	} `json:"user"`
}

type movieDTO struct {
	ID     string      `json:"_id"`
	AltID  string      `json:"id"`
	Title  string      `json:"title"`
	Year   fields.Text `json:"year"`
	Rating fields.Text `json:"rating"`
	Link   string      `json:"link"`
	Image  string      `json:"image"`
}

func (d movieDTO) toModel() models.Movie {
	id := d.ID
	if id == "" {
		id = d.AltID
	}
	return models.Movie{
		ID:     id,
		Title:  d.Title,
		Year:   d.Year,
		Rating: d.Rating,
		Link:   d.Link,
		Image:  d.Image,
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "moviesapi.Client.Login"
	log := c.log.With("op", op, "email", email)
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, loginPath, "", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var resp loginResponse
	if err := c.do(req, &resp); err != nil {
		log.Info("login rejected", "errMsg", err.Error())
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response without token", ErrBadResponse)
	}
	return &LoginResult{Token: resp.Token, Role: resp.User.Role}, nil
}

func (c *Client) ListMovies(ctx context.Context, token string) ([]models.Movie, error) {
	req, err := c.newRequest(ctx, http.MethodGet, moviesPath, token, nil)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	dtos, err := decodeMovieList(raw)
	if err != nil {
		return nil, err
	}
	movies := make([]models.Movie, 0, len(dtos))
	for _, d := range dtos {
		movies = append(movies, d.toModel())
	}
	return movies, nil
}

func (c *Client) GetMovie(ctx context.Context, token, id string) (*models.Movie, error) {
	req, err := c.newRequest(ctx, http.MethodGet, moviesPath+"/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}
	return c.doMovie(req)
}

func (c *Client) CreateMovie(ctx context.Context, token string, form MovieForm) (*models.Movie, error) {
	const op = "moviesapi.Client.CreateMovie"
	movie, err := c.sendForm(ctx, http.MethodPost, createPath, token, "", form)
	if err != nil {
		c.log.With("op", op).Error("Error creating movie", "errMsg", err.Error())
		return nil, err
	}
	return movie, nil
}

func (c *Client) UpdateMovie(ctx context.Context, token, id string, form MovieForm) (*models.Movie, error) {
	const op = "moviesapi.Client.UpdateMovie"
	movie, err := c.sendForm(ctx, http.MethodPut, updatePath+url.PathEscape(id), token, id, form)
	if err != nil {
		c.log.With("op", op, "id", id).Error("Error updating movie", "errMsg", err.Error())
		return nil, err
	}
	return movie, nil
}

func (c *Client) DeleteMovie(ctx context.Context, token, id string) error {
	const op = "moviesapi.Client.DeleteMovie"
	req, err := c.newRequest(ctx, http.MethodDelete, deletePath+url.PathEscape(id), token, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		c.log.With("op", op, "id", id).Error("Error deleting movie", "errMsg", err.Error())
		return err
	}
	return nil
}

// sendForm treats every 2xx as a saved record. When the body carries no
// record the result is rebuilt from the submitted form.
func (c *Client) sendForm(ctx context.Context, method, path, token, id string, form MovieForm) (*models.Movie, error) {
	const op = "moviesapi.Client.sendForm"
	body, contentType, err := encodeForm(form)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, token, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	raw, err := c.send(req)
	if err != nil {
		return nil, err
	}
	dto, err := decodeMovie(raw)
	if err != nil {
		c.log.With("op", op, "path", path).Warn("saved without a record in the response", "errMsg", err.Error())
		return form.movie(id), nil
	}
	movie := dto.toModel()
	return &movie, nil
}

func (f MovieForm) movie(id string) *models.Movie {
	return &models.Movie{
		ID:     id,
		Title:  f.Title,
		Year:   fields.Text(f.Year),
		Rating: fields.Text(f.Rating),
		Link:   f.Link,
	}
}

func encodeForm(form MovieForm) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range [...]struct{ name, value string }{
		{"title", form.Title},
		{"year", form.Year},
		{"rating", form.Rating},
		{"link", form.Link},
	} {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if form.File != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(form.File.Filename)))
		contentType := form.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(form.File.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doMovie(req *http.Request) (*models.Movie, error) {
	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	dto, err := decodeMovie(raw)
	if err != nil {
		return nil, err
	}
	movie := dto.toModel()
	return &movie, nil
}

func (c *Client) do(req *http.Request, out any) error {
	raw, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}

// send performs req and returns the body of a 2xx response.
func (c *Client) send(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, decodeAPIError(resp)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	return raw, nil
}

func decodeAPIError(resp *http.Response) error {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(body, &errResp)
	msg := errResp.Message
	if msg == "" {
		msg = errResp.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// decodeMovie accepts the record itself or an object wrapping it under "movie".
func decodeMovie(raw json.RawMessage) (movieDTO, error) {
	var wrapped struct {
		Movie *movieDTO `json:"movie"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Movie != nil {
		return *wrapped.Movie, nil
	}
	var dto movieDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return movieDTO{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if dto.ID == "" && dto.AltID == "" {
		return movieDTO{}, fmt.Errorf("%w: record without id", ErrBadResponse)
	}
	return dto, nil
}

// decodeMovieList accepts a bare array or an object wrapping it under "movies".
func decodeMovieList(raw json.RawMessage) ([]movieDTO, error) {
	var list []movieDTO
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Movies []movieDTO `json:"movies"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if wrapped.Movies == nil {
		return nil, fmt.Errorf("%w: no movies in response", ErrBadResponse)
	}
	return wrapped.Movies, nil
}
