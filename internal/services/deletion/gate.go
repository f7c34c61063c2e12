package deletion

import (
	"context"
	"log/slog"
	"moviecatalog/proj/internal/domain/models"
	"strings"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StatePendingConfirmation
	StateDeleting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingConfirmation:
		return "pending_confirmation"
	case StateDeleting:
		return "deleting"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Deleter interface {
	DeleteMovie(ctx context.Context, token, id string) error
}

type SessionReader interface {
	Current() (models.Session, bool)
}

type Status struct {
	State   State                   `json:"state"`
	Request *models.DeletionRequest `json:"request,omitempty"`
	Error   *DeletionError          `json:"error,omitempty"`
}

// Gate makes a delete a two step action: RequestDelete, then Confirm. The
// remote call is only ever made from Confirm.
type Gate struct {
	log       *slog.Logger
	api       Deleter
	sessions  SessionReader
	onDeleted func(id string)

	mu      sync.Mutex
	state   State
	target  string
	lastErr *DeletionError
}

func New(log *slog.Logger, api Deleter, sessions SessionReader, onDeleted func(id string)) *Gate {
	return &Gate{
		log:       log,
		api:       api,
		sessions:  sessions,
		onDeleted: onDeleted,
	}
}

// RequestDelete arms the gate for id. A pending request is replaced.
func (g *Gate) RequestDelete(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyTarget
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateDeleting {
		return ErrDeletionInProgress
	}
	if g.state == StatePendingConfirmation && g.target != id {
		g.log.Debug("replacing pending deletion", "previous", g.target, "target", id)
	}
	g.state = StatePendingConfirmation
	g.target = id
	g.lastErr = nil
	return nil
}

// Cancel drops a pending request without side effects.
func (g *Gate) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StatePendingConfirmation {
		g.state = StateIdle
		g.target = ""
	}
}

// Confirm performs the pending deletion. The gate is Idle afterwards whatever
// the outcome.
func (g *Gate) Confirm(ctx context.Context) error {
	const op = "deletion.Gate.Confirm"
	g.mu.Lock()
	switch g.state {
	case StateIdle:
		g.mu.Unlock()
		return ErrNothingPending
	case StateDeleting:
		g.mu.Unlock()
		return ErrDeletionInProgress
	}
	id := g.target
	g.state = StateDeleting
	g.mu.Unlock()

	log := g.log.With("op", op, "id", id)
	var err error
	if sess, ok := g.sessions.Current(); ok {
		err = g.api.DeleteMovie(ctx, sess.Token, id)
	} else {
		err = &DeletionError{Kind: KindUnauthorized, Message: "Please log in again.", TargetID: id}
	}

	var delErr *DeletionError
	if err != nil {
		if de, ok := err.(*DeletionError); ok {
			delErr = de
		} else {
			delErr = classify(id, err)
		}
		log.Warn("deletion failed", "kind", delErr.Kind.String(), "errMsg", err.Error())
	}

	g.mu.Lock()
	g.state = StateIdle
	g.target = ""
	g.lastErr = delErr
	g.mu.Unlock()

	if delErr != nil {
		return delErr
	}
	log.Info("movie deleted")
	if g.onDeleted != nil {
		g.onDeleted(id)
	}
	return nil
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := Status{State: g.state, Error: g.lastErr}
	if g.target != "" {
		st.Request = &models.DeletionRequest{TargetID: g.target, Confirmed: g.state == StateDeleting}
	}
	return st
}
