package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"moviecatalog/proj/internal/clients/moviesapi"
	"moviecatalog/proj/internal/lib/validator"
	"moviecatalog/proj/internal/services/deletion"
	"moviecatalog/proj/internal/services/movies"
	"moviecatalog/proj/internal/services/submission"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request) (id string, extracted bool) {
	id = strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		app.Http.BadRequest(w, r, "id must not be empty")
		return "", false
	}
	return id, true
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	src := http.MaxBytesReader(w, r.Body, int64(maxBytes))
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}

func (app *Application) draftInvalid(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	messages := make(map[string]string, len(errs))
	for field, reason := range errs {
		messages[string(field)] = validator.Message(field, reason)
	}
	app.Http.Response(w, r, envelop{"errors": errs, "messages": messages}, "", http.StatusUnprocessableEntity)
}

// remoteError maps a failed call to the movies API onto a gateway response.
func (app *Application) remoteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *moviesapi.APIError
	var netErr *moviesapi.NetworkError
	switch {
	case errors.Is(err, movies.ErrNoSession):
		app.Http.Unauthorized(w, r, "You must be logged in to access this resource")
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		app.Http.Unauthorized(w, r, apiErr.Message)
	case errors.As(err, &apiErr):
		app.Http.BadGateway(w, r, apiErr.Message)
	case errors.Is(err, moviesapi.ErrBadResponse):
		app.Http.BadGateway(w, r, "Unexpected response from the movies service")
	case errors.As(err, &netErr):
		app.Http.ServiceUnavailable(w, r, "Movies service is unreachable. Please try again.")
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) submissionError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	var subErr *submission.SubmissionError
	switch {
	case errors.As(err, &verrs):
		app.draftInvalid(w, r, verrs)
	case errors.Is(err, submission.ErrSubmissionInProgress), errors.Is(err, submission.ErrAlreadySubmitted):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, submission.ErrClosed):
		app.Http.NotFound(w, r, "Editor was closed")
	case errors.As(err, &subErr):
		data := envelop{"error": subErr}
		switch subErr.Kind {
		case submission.KindUnauthorized:
			app.Http.Response(w, r, data, subErr.Message, http.StatusUnauthorized)
		case submission.KindServerRejected:
			app.Http.Response(w, r, data, subErr.Message, http.StatusBadGateway)
		default:
			app.Http.Response(w, r, data, subErr.Message, http.StatusServiceUnavailable)
		}
	default:
		app.Http.ServerError(w, r, err, "")
	}
}

func (app *Application) deletionError(w http.ResponseWriter, r *http.Request, err error) {
	var delErr *deletion.DeletionError
	switch {
	case errors.Is(err, deletion.ErrNothingPending), errors.Is(err, deletion.ErrDeletionInProgress):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, deletion.ErrEmptyTarget):
		app.Http.BadRequest(w, r, err.Error())
	case errors.As(err, &delErr):
		data := envelop{"error": delErr}
		switch delErr.Kind {
		case deletion.KindUnauthorized:
			app.Http.Response(w, r, data, delErr.Message, http.StatusUnauthorized)
		case deletion.KindNotFound:
			app.Http.Response(w, r, data, delErr.Message, http.StatusNotFound)
		case deletion.KindServerRejected:
			app.Http.Response(w, r, data, delErr.Message, http.StatusBadGateway)
		default:
			app.Http.Response(w, r, data, delErr.Message, http.StatusServiceUnavailable)
		}
	default:
		app.Http.ServerError(w, r, err, "")
	}
}
