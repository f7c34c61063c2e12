package deletion

import (
	"errors"
	"moviecatalog/proj/internal/clients/moviesapi"
)

var (
	ErrDeletionInProgress = errors.New("deletion in progress")
	ErrNothingPending     = errors.New("no deletion awaiting confirmation")
	ErrEmptyTarget        = errors.New("movie id is required")
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindServerRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "Network"
	case KindUnauthorized:
		return "Unauthorized"
	case KindNotFound:
		return "NotFound"
	case KindServerRejected:
		return "ServerRejected"
	}
	return "Unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type DeletionError struct {
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	TargetID string `json:"target_id"`
	Err      error  `json:"-"`
}

func (e *DeletionError) Error() string {
	return "delete " + e.TargetID + ": " + e.Kind.String() + ": " + e.Message
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}

func classify(id string, err error) *DeletionError {
	var apiErr *moviesapi.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Unauthorized():
			return &DeletionError{Kind: KindUnauthorized, Message: apiErr.Message, TargetID: id, Err: err}
		case apiErr.NotFound():
			return &DeletionError{Kind: KindNotFound, Message: apiErr.Message, TargetID: id, Err: err}
		}
		return &DeletionError{Kind: KindServerRejected, Message: apiErr.Message, TargetID: id, Err: err}
	}
	return &DeletionError{Kind: KindNetwork, Message: "Unable to reach the server. Please try again.", TargetID: id, Err: err}
}
