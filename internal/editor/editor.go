package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"moviecatalog/proj/internal/attachment"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/validator"
	"moviecatalog/proj/internal/services/submission"
	"slices"
	"sync"
	"time"
)

var (
	ErrUnknownField   = errors.New("unknown draft field")
	ErrEditorNotFound = errors.New("editor not found")
)

// View is what the UI renders for an editor.
type View struct {
	ID       string            `json:"id"`
	Draft    models.MovieDraft `json:"draft"`
	HasImage bool              `json:"has_image"`
	Status   submission.Status `json:"submission"`
	Redirect string            `json:"redirect,omitempty"`
}

// Editor is the view model behind one add or edit form. It owns the draft,
// the selected image and the submission controller until it is closed.
type Editor struct {
	ID  string
	log *slog.Logger

	files *attachment.Manager
	ctrl  *submission.Controller

	mu       sync.Mutex
	draft    models.MovieDraft
	redirect string
	lastUsed time.Time
	now      func() time.Time
}

type Options struct {
	PreviewDir      string
	MaxUploadBytes  int64
	NavigationDelay time.Duration
}

func New(log *slog.Logger, id string, api submission.MovieAPI, opts Options, prefill *models.Movie) *Editor {
	e := &Editor{
		ID:    id,
		log:   log.With("editor", id),
		files: attachment.New(log, opts.PreviewDir, opts.MaxUploadBytes),
		now:   time.Now,
	}
	if prefill != nil {
		e.draft = *models.DraftFromMovie(prefill)
	}
	e.ctrl = submission.New(e.log, api, submission.NavigatorFunc(e.navigate), opts.NavigationDelay)
	e.lastUsed = e.now()
	return e
}

func (e *Editor) navigate(route string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.redirect = route
}

func (e *Editor) touch() {
	e.lastUsed = e.now()
}

func (e *Editor) idleSince() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastUsed
}

func (e *Editor) submitting() bool {
	return e.ctrl.State() == submission.StateSubmitting
}

// SetField updates one text field. Rating keystrokes that could never become a
// valid rating are refused and the previous value is kept.
func (e *Editor) SetField(name, value string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	if !knownField(name) {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if !e.setLocked(name, value) {
		return false, nil
	}
	e.ctrl.Reset()
	return true, nil
}

// SetFields applies a batch of edits in name order. An unknown name rejects
// the whole batch before anything changes. It returns the refused names.
func (e *Editor) SetFields(values map[string]string) ([]string, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		if !knownField(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	rejected := []string{}
	for _, name := range names {
		if !e.setLocked(name, values[name]) {
			rejected = append(rejected, name)
		}
	}
	if len(rejected) < len(names) {
		e.ctrl.Reset()
	}
	return rejected, nil
}

func knownField(name string) bool {
	switch validator.Field(name) {
	case validator.FieldTitle, validator.FieldYear, validator.FieldRating, validator.FieldLink:
		return true
	}
	return false
}

func (e *Editor) setLocked(name, value string) bool {
	switch validator.Field(name) {
	case validator.FieldTitle:
		e.draft.Title = value
	case validator.FieldYear:
		e.draft.Year = value
	case validator.FieldRating:
		if !validator.AcceptRatingKeystroke(value) {
			return false
		}
		e.draft.Rating = value
	case validator.FieldLink:
		e.draft.Link = value
	}
	return true
}

func (e *Editor) SelectImage(filename string, r io.Reader) (*attachment.PreviewHandle, error) {
	e.mu.Lock()
	e.touch()
	e.mu.Unlock()
	h, err := e.files.Select(filename, r)
	if err != nil {
		return nil, err
	}
	e.ctrl.Reset()
	return h, nil
}

func (e *Editor) ClearImage() error {
	e.mu.Lock()
	e.touch()
	e.mu.Unlock()
	e.ctrl.Reset()
	return e.files.Clear()
}

func (e *Editor) Preview() (*attachment.PreviewHandle, bool) {
	return e.files.Preview()
}

// current returns a copy of the draft with the selected image attached.
func (e *Editor) current() *models.MovieDraft {
	e.mu.Lock()
	d := e.draft
	e.touch()
	e.mu.Unlock()
	if file, ok := e.files.File(); ok {
		d.Attachment = file
	}
	return &d
}

func (e *Editor) Validate() validator.Result {
	return validator.ValidateDraft(e.current())
}

func (e *Editor) Submit(ctx context.Context, sess models.Session) (*models.Movie, error) {
	return e.ctrl.Submit(ctx, e.current(), sess)
}

func (e *Editor) SubmitAsync(ctx context.Context, sess models.Session, executor submission.TaskExecutor) error {
	return e.ctrl.SubmitAsync(ctx, e.current(), sess, executor)
}

func (e *Editor) Snapshot() View {
	e.mu.Lock()
	v := View{ID: e.ID, Draft: e.draft, Redirect: e.redirect}
	e.mu.Unlock()
	_, v.HasImage = e.files.File()
	v.Status = e.ctrl.Status()
	return v
}

// Close discards the draft: the preview file is released and an in-flight
// submission result is ignored.
func (e *Editor) Close() error {
	e.ctrl.Close()
	return e.files.Close()
}
