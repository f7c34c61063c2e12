package auth

import (
	"context"
	"errors"
	"log/slog"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/validator"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"
)

type LoginProvider interface {
	Login(ctx context.Context, email, password string) (*moviesapi.LoginResult, error)
}

// SessionWriter is the write side of the session. Only this service uses it.
type SessionWriter interface {
	Set(ctx context.Context, sess models.Session) error
	Clear(ctx context.Context) error
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService struct {
	log       *slog.Logger
	provider  LoginProvider
	sessions  SessionWriter
	validator *govalidator.Validate
}

func New(log *slog.Logger, provider LoginProvider, sessions SessionWriter) *AuthService {
	return &AuthService{
		log:       log,
		provider:  provider,
		sessions:  sessions,
		validator: validator.New(),
	}
}

func (a *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	const op = "auth.AuthService.Login"
	log := a.log.With("op", op, "email", email)
	input := credentials{Email: email, Password: password}
	if errs := validator.ValidateStruct(a.validator, input); errs != nil {
		return models.Session{}, &InvalidDataError{Errors: errs}
	}
	resp, err := a.provider.Login(ctx, email, password)
	if err != nil {
		var apiErr *moviesapi.APIError
		if errors.As(err, &apiErr) && (apiErr.Unauthorized() || apiErr.Status == http.StatusBadRequest) {
			log.Info("login rejected", "status", apiErr.Status)
			return models.Session{}, &CredentialsError{Message: apiErr.Message}
		}
		log.Error("Error calling movies API login", "errMsg", err.Error())
		return models.Session{}, err
	}
	role, err := models.ParseRole(resp.Role)
	if err != nil {
		log.Warn("login returned unsupported role", "role", resp.Role)
		return models.Session{}, err
	}
	sess := models.Session{Token: resp.Token, Role: role}
	if err := a.sessions.Set(ctx, sess); err != nil {
		log.Error("Error saving session", "errMsg", err.Error())
		return models.Session{}, err
	}
	log.Info("logged in", "role", role.String())
	return sess, nil
}

func (a *AuthService) Logout(ctx context.Context) error {
	const op = "auth.AuthService.Logout"
	if err := a.sessions.Clear(ctx); err != nil {
		a.log.With("op", op).Error("Error clearing session", "errMsg", err.Error())
		return err
	}
	return nil
}

// LandingRoute is the first route shown after login.
func LandingRoute(role models.Role) string {
	return role.LandingRoute()
}
