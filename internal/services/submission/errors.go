package submission

import (
	"errors"
	"moviecatalog/proj/internal/clients/moviesapi"
)

var (
	ErrSubmissionInProgress = errors.New("submission already in progress")
	ErrAlreadySubmitted     = errors.New("draft already submitted")
	ErrClosed               = errors.New("submission controller closed")
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindUnauthorized
	KindServerRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "Network"
	case KindUnauthorized:
		return "Unauthorized"
	case KindServerRejected:
		return "ServerRejected"
	}
	return "Unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SubmissionError is a failed create or update. The draft is left intact.
type SubmissionError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *SubmissionError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

const (
	msgNetwork     = "Unable to reach the server. Please try again."
	msgBadResponse = "Unexpected response from the server."
	msgNoSession   = "Please log in again."
)

func classify(err error) *SubmissionError {
	var apiErr *moviesapi.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Unauthorized() {
			return &SubmissionError{Kind: KindUnauthorized, Message: apiErr.Message, Err: err}
		}
		return &SubmissionError{Kind: KindServerRejected, Message: apiErr.Message, Err: err}
	case errors.Is(err, moviesapi.ErrBadResponse):
		return &SubmissionError{Kind: KindServerRejected, Message: msgBadResponse, Err: err}
	}
	// transport failures, timeouts and cancellations
	return &SubmissionError{Kind: KindNetwork, Message: msgNetwork, Err: err}
}
