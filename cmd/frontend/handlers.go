package main

import (
	"errors"
	"moviecatalog/proj/internal/services/auth"
	"net/http"

	"github.com/go-chi/render"
)

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Debug   bool   `json:"debug"`
		Version string `json:"version"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
	})
}

func (app *Application) login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	sess, err := app.services.Auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		var invalid *auth.InvalidDataError
		var rejected *auth.CredentialsError
		switch {
		case errors.As(err, &invalid):
			app.Http.UnprocessableEntity(w, r, invalid.Errors)
		case errors.As(err, &rejected):
			app.Http.Unauthorized(w, r, rejected.Message)
		case errors.Is(err, auth.ErrUnknownRole):
			app.Http.Forbidden(w, r, "Account role is not supported")
		default:
			app.remoteError(w, r, err)
		}
		return
	}
	app.Http.Ok(w, r, envelop{
		"role":          sess.Role,
		"landing_route": auth.LandingRoute(sess.Role),
	}, "Logged in")
}

func (app *Application) getSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromCtx(r)
	app.Http.Ok(w, r, envelop{
		"role":          sess.Role,
		"landing_route": auth.LandingRoute(sess.Role),
	}, "")
}

// logout also discards every open draft and any pending deletion.
func (app *Application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.services.Auth.Logout(r.Context()); err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.services.Deletion.Cancel()
	if err := app.services.Editors.Close(); err != nil {
		app.log.Warn("failed to release editor previews", "errMsg", err.Error())
	}
	app.Http.Ok(w, r, nil, "Logged out")
}
