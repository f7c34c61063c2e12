package auth

import (
	"context"
	"errors"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/logger"
	"moviecatalog/proj/internal/session"
	credstore "moviecatalog/proj/internal/storage/credentials"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	role  string
	err   error
	calls int
}

func (f *fakeProvider) Login(ctx context.Context, email, password string) (*moviesapi.LoginResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &moviesapi.LoginResult{Token: "tok-" + email, Role: f.role}, nil
}

func newService(p *fakeProvider) (*AuthService, *session.Manager) {
	sessions := session.New(logger.Discard(), credstore.NewMemoryStore())
	return New(logger.Discard(), p, sessions), sessions
}

func TestLogin(t *testing.T) {
	for _, tc := range []struct {
		role    string
		want    models.Role
		landing string
	}{
		{"admin", models.RoleAdmin, "/edit"},
		{"user", models.RoleUser, "/home"},
	} {
		t.Run(tc.role, func(t *testing.T) {
			svc, sessions := newService(&fakeProvider{role: tc.role})
			sess, err := svc.Login(context.Background(), "a@b.co", "secret")
			require.NoError(t, err)
			assert.Equal(t, models.Session{Token: "tok-a@b.co", Role: tc.want}, sess)
			assert.Equal(t, tc.landing, LandingRoute(sess.Role))

			current, ok := sessions.Current()
			require.True(t, ok)
			assert.Equal(t, sess, current)

			require.NoError(t, svc.Logout(context.Background()))
			_, ok = sessions.Current()
			assert.False(t, ok)
		})
	}
}

func TestLogin_InvalidInput(t *testing.T) {
	p := &fakeProvider{role: "admin"}
	svc, _ := newService(p)
	_, err := svc.Login(context.Background(), "not-an-email", "")
	var invalid *InvalidDataError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, map[string]string{
		"email":    "Invalid email address",
		"password": "This field is required",
	}, invalid.Errors)
	assert.Equal(t, 0, p.calls)
}

func TestLogin_Rejected(t *testing.T) {
	svc, sessions := newService(&fakeProvider{err: &moviesapi.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}})
	_, err := svc.Login(context.Background(), "a@b.co", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	var credErr *CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, "Invalid email or password", credErr.Message)
	_, ok := sessions.Current()
	assert.False(t, ok)
}

func TestLogin_UnknownRole(t *testing.T) {
	svc, sessions := newService(&fakeProvider{role: "superuser"})
	_, err := svc.Login(context.Background(), "a@b.co", "secret")
	assert.ErrorIs(t, err, ErrUnknownRole)
	_, ok := sessions.Current()
	assert.False(t, ok)
}

func TestLogin_NetworkError(t *testing.T) {
	netErr := &moviesapi.NetworkError{Op: "POST /api/users/login", Err: errors.New("refused")}
	svc, _ := newService(&fakeProvider{err: netErr})
	_, err := svc.Login(context.Background(), "a@b.co", "secret")
	assert.ErrorIs(t, err, netErr)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
