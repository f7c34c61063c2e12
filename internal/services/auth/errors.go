package auth

import (
	"errors"
	"moviecatalog/proj/internal/domain/models"
)

// InvalidDataError carries field -> message for rejected login input.
type InvalidDataError struct {
	Errors map[string]string
}

func (e *InvalidDataError) Error() string {
	return "invalid login data"
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownRole        = models.ErrUnknownRole
)

// CredentialsError is a login the movies API refused. Message is the
// API's own explanation.
type CredentialsError struct {
	Message string
}

func (e *CredentialsError) Error() string {
	return ErrInvalidCredentials.Error() + ": " + e.Message
}

func (e *CredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}
