package main

import (
	"errors"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/editor"
	"moviecatalog/proj/internal/lib/validator"
	"moviecatalog/proj/internal/services/movies"
	"net/http"
)

func (app *Application) editorFromRequest(w http.ResponseWriter, r *http.Request) (*editor.Editor, bool) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return nil, false
	}
	e, err := app.services.Editors.Get(id)
	if err != nil {
		app.Http.NotFound(w, r, "Editor not found")
		return nil, false
	}
	return e, true
}

func (app *Application) openEditor(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MovieID string `json:"movie_id"`
	}
	if r.ContentLength != 0 {
		if err := app.readJSON(w, r, &input); err != nil {
			app.Http.BadRequest(w, r, err.Error())
			return
		}
	}
	var prefill *models.Movie
	if input.MovieID != "" {
		movie, err := app.services.Movies.Get(r.Context(), input.MovieID)
		if err != nil {
			if errors.Is(err, movies.ErrMovieNotFound) {
				app.Http.NotFound(w, r, "Movie not found")
				return
			}
			app.remoteError(w, r, err)
			return
		}
		prefill = movie
	}
	e := app.services.Editors.Open(prefill)
	app.Http.Created(w, r, envelop{"editor": e.Snapshot()}, "")
}

func (app *Application) getEditor(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	app.Http.Ok(w, r, envelop{"editor": e.Snapshot()}, "")
}

func (app *Application) discardEditor(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.services.Editors.Discard(id); err != nil {
		if errors.Is(err, editor.ErrEditorNotFound) {
			app.Http.NotFound(w, r, "Editor not found")
			return
		}
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, nil, "Draft discarded")
}

// setEditorFields applies a batch of keystrokes. Rejected rating values are
// listed in the response and leave the previous value in place.
func (app *Application) setEditorFields(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	var input map[string]string
	if err := app.readJSON(w, r, &input); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	rejected, err := e.SetFields(input)
	if err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	app.Http.Ok(w, r, envelop{"editor": e.Snapshot(), "rejected": rejected}, "")
}

func (app *Application) validateEditor(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	if res := e.Validate(); !res.Valid() {
		app.draftInvalid(w, r, res.Errors)
		return
	}
	app.Http.Ok(w, r, envelop{"valid": true}, "")
}

func (app *Application) selectEditorImage(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	maxBytes := app.cfg.Editor.MaxUploadBytes + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			app.Http.RequestEntityTooLarge(w, r, "Image is too large")
		case errors.Is(err, http.ErrMissingFile):
			app.Http.UnprocessableEntity(w, r, map[string]string{
				string(validator.FieldAttachment): validator.Message(validator.FieldAttachment, validator.ReasonRequired),
			})
		default:
			app.Http.BadRequest(w, r, "body must be multipart/form-data with a file part")
		}
		return
	}
	defer file.Close()
	defer r.MultipartForm.RemoveAll()
	h, err := e.SelectImage(header.Filename, file)
	if err != nil {
		app.attachmentError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{
		"preview": envelop{
			"id":           h.ID,
			"content_type": h.ContentType,
			"url":          r.URL.Path,
		},
	}, "")
}

func (app *Application) getEditorImage(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	h, ok := e.Preview()
	if !ok {
		app.Http.NotFound(w, r, "No image selected")
		return
	}
	w.Header().Set("Content-Type", h.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, h.Path)
}

func (app *Application) clearEditorImage(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	if err := e.ClearImage(); err != nil {
		app.Http.ServerError(w, r, err, "")
		return
	}
	app.Http.Ok(w, r, envelop{"editor": e.Snapshot()}, "")
}

func (app *Application) submitEditor(w http.ResponseWriter, r *http.Request) {
	e, ok := app.editorFromRequest(w, r)
	if !ok {
		return
	}
	if err := e.SubmitAsync(r.Context(), sessionFromCtx(r), app.tasks); err != nil {
		app.submissionError(w, r, err)
		return
	}
	app.Http.Accepted(w, r, envelop{"editor": e.Snapshot()}, "Submission started")
}
