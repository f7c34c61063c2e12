package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrCorrupt  = errors.New("stored value is corrupt")
)
