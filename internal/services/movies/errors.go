package movies

import "errors"

var (
	ErrMovieNotFound = errors.New("movie not found")
	ErrNoSession     = errors.New("not logged in")
)
