package submission

import (
	"context"
	"errors"
	"log/slog"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/validator"
	"sync"
	"time"
)

// ListingRoute is where the UI goes after a successful submission.
const ListingRoute = "/edit"

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type MovieAPI interface {
	CreateMovie(ctx context.Context, token string, form moviesapi.MovieForm) (*models.Movie, error)
	UpdateMovie(ctx context.Context, token, id string, form moviesapi.MovieForm) (*models.Movie, error)
}

type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type TaskExecutor interface {
	Add(task func()) error
}

type Status struct {
	State State            `json:"state"`
	Movie *models.Movie    `json:"movie,omitempty"`
	Error *SubmissionError `json:"error,omitempty"`
}

// Controller sends one draft to the remote API. At most one request is in
// flight per controller.
type Controller struct {
	log   *slog.Logger
	api   MovieAPI
	nav   Navigator
	delay time.Duration

	mu       sync.Mutex
	state    State
	movie    *models.Movie
	lastErr  *SubmissionError
	closed   bool
	navTimer *time.Timer
}

func New(log *slog.Logger, api MovieAPI, nav Navigator, navigationDelay time.Duration) *Controller {
	return &Controller{
		log:   log,
		api:   api,
		nav:   nav,
		delay: navigationDelay,
	}
}

type attempt struct {
	token string
	id    string
	form  moviesapi.MovieForm
}

// begin moves the controller to Submitting. Validation failures leave the
// state untouched.
func (c *Controller) begin(draft *models.MovieDraft, sess models.Session) (*attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	switch c.state {
	case StateSubmitting:
		return nil, ErrSubmissionInProgress
	case StateSuccess:
		return nil, ErrAlreadySubmitted
	}
	if res := validator.ValidateDraft(draft); !res.Valid() {
		return nil, res.Errors
	}
	if sess.IsZero() {
		c.fail(&SubmissionError{Kind: KindUnauthorized, Message: msgNoSession})
		return nil, c.lastErr
	}
	c.state = StateSubmitting
	c.lastErr = nil
	return &attempt{token: sess.Token, id: draft.ID, form: moviesapi.FormFromDraft(draft)}, nil
}

func (c *Controller) send(ctx context.Context, a *attempt) (*models.Movie, error) {
	if a.id == "" {
		return c.api.CreateMovie(ctx, a.token, a.form)
	}
	return c.api.UpdateMovie(ctx, a.token, a.id, a.form)
}

func (c *Controller) finish(a *attempt, movie *models.Movie, err error) (*models.Movie, error) {
	const op = "submission.Controller.finish"
	log := c.log.With("op", op, "id", a.id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		log.Info("discarding result of closed controller")
		if err != nil {
			return nil, classify(err)
		}
		return movie, nil
	}
	if err != nil {
		c.fail(classify(err))
		log.Warn("submission failed", "kind", c.lastErr.Kind.String(), "errMsg", err.Error())
		return nil, c.lastErr
	}
	c.state = StateSuccess
	c.movie = movie
	c.navTimer = time.AfterFunc(c.delay, c.navigate)
	log.Info("movie submitted", "movieID", movie.ID)
	return movie, nil
}

func (c *Controller) fail(err *SubmissionError) {
	c.state = StateFailed
	c.lastErr = err
}

func (c *Controller) navigate() {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed || c.nav == nil {
		return
	}
	c.nav.Navigate(ListingRoute)
}

// Submit validates the draft and sends it, blocking until the remote API
// answers. It returns validator.ValidationErrors without touching the network
// when the draft is invalid.
func (c *Controller) Submit(ctx context.Context, draft *models.MovieDraft, sess models.Session) (*models.Movie, error) {
	a, err := c.begin(draft, sess)
	if err != nil {
		return nil, err
	}
	movie, err := c.send(ctx, a)
	return c.finish(a, movie, err)
}

// SubmitAsync performs the state transition synchronously and runs the request
// on executor. The outcome is observed through Status.
func (c *Controller) SubmitAsync(ctx context.Context, draft *models.MovieDraft, sess models.Session, executor TaskExecutor) error {
	a, err := c.begin(draft, sess)
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	err = executor.Add(func() {
		movie, err := c.send(ctx, a)
		_, _ = c.finish(a, movie, err)
	})
	if err != nil {
		_, err = c.finish(a, nil, err)
		return err
	}
	return nil
}

// Reset returns a failed controller to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFailed {
		c.state = StateIdle
		c.lastErr = nil
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, Movie: c.movie, Error: c.lastErr}
}

// Close disposes the controller. Results that arrive afterwards are dropped
// and a pending navigation never fires.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.navTimer != nil {
		c.navTimer.Stop()
	}
}

// IsValidationError reports whether err came from draft validation.
func IsValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}
