package editor

import (
	"context"
	"log/slog"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/services/submission"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps the open editors by id. Editors left idle longer than the
// configured TTL are closed by Reap.
type Registry struct {
	log     *slog.Logger
	api     submission.MovieAPI
	opts    Options
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	editors map[string]*Editor
}

func NewRegistry(log *slog.Logger, api submission.MovieAPI, opts Options, idleTTL time.Duration) *Registry {
	if opts.PreviewDir == "" {
		opts.PreviewDir = filepath.Join(os.TempDir(), "moviecatalog-previews")
	}
	return &Registry{
		log:     log,
		api:     api,
		opts:    opts,
		idleTTL: idleTTL,
		now:     time.Now,
		editors: make(map[string]*Editor),
	}
}

// Open starts an editor. A nil prefill opens the create flow.
func (r *Registry) Open(prefill *models.Movie) *Editor {
	const op = "editor.Registry.Open"
	id := uuid.NewString()
	opts := r.opts
	opts.PreviewDir = filepath.Join(r.opts.PreviewDir, id)
	e := New(r.log, id, r.api, opts, prefill)
	e.now = r.now
	e.lastUsed = r.now()
	r.mu.Lock()
	r.editors[id] = e
	r.mu.Unlock()
	r.log.With("op", op).Debug("editor opened", "id", id, "create", prefill == nil)
	return e
}

func (r *Registry) Get(id string) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.editors[id]
	if !ok {
		return nil, ErrEditorNotFound
	}
	return e, nil
}

// Discard closes the editor and forgets it.
func (r *Registry) Discard(id string) error {
	r.mu.Lock()
	e, ok := r.editors[id]
	delete(r.editors, id)
	r.mu.Unlock()
	if !ok {
		return ErrEditorNotFound
	}
	return r.close(e)
}

func (r *Registry) close(e *Editor) error {
	err := e.Close()
	if rmErr := os.Remove(filepath.Join(r.opts.PreviewDir, e.ID)); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.editors)
}

// Reap closes editors idle for longer than the TTL and returns how many.
// Editors waiting on a submission are kept until it settles.
func (r *Registry) Reap() int {
	const op = "editor.Registry.Reap"
	log := r.log.With("op", op)
	deadline := r.now().Add(-r.idleTTL)
	var stale []*Editor
	r.mu.Lock()
	for id, e := range r.editors {
		if e.idleSince().Before(deadline) && !e.submitting() {
			stale = append(stale, e)
			delete(r.editors, id)
		}
	}
	r.mu.Unlock()
	for _, e := range stale {
		if err := r.close(e); err != nil {
			log.Error("Error closing idle editor", "id", e.ID, "errMsg", err.Error())
		}
	}
	if len(stale) > 0 {
		log.Info("reaped idle editors", "count", len(stale))
	}
	return len(stale)
}

// Run reaps idle editors until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(max(r.idleTTL/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap()
		}
	}
}

// Close closes every editor.
func (r *Registry) Close() error {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[string]*Editor)
	r.mu.Unlock()
	var firstErr error
	for _, e := range editors {
		if err := r.close(e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
