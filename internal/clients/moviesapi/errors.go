package moviesapi

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrBadResponse = errors.New("unexpected response from movies API")

// APIError is a non-2xx answer from the movies API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("movies API: HTTP %d", e.Status)
	}
	return e.Message
}

func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
