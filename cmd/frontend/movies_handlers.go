package main

import (
	"errors"
	"moviecatalog/proj/internal/attachment"
	"moviecatalog/proj/internal/domain/filters"
	"moviecatalog/proj/internal/domain/models"
	"moviecatalog/proj/internal/lib/validator"
	"moviecatalog/proj/internal/services/movies"
	"net/http"
	"os"
	"path/filepath"
)

func (app *Application) listMovies(w http.ResponseWriter, r *http.Request) {
	f := filters.New(movies.SortSafelist...)
	if err := app.decoder.Decode(&f, r.URL.Query()); err != nil {
		app.Http.BadRequest(w, r, "invalid query parameters")
		return
	}
	if errs := validator.ValidateStruct(app.validator, f); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return
	}
	result, err := app.services.Movies.List(r.Context(), f)
	if err != nil {
		if errors.Is(err, filters.ErrUnknownSortField) {
			app.Http.UnprocessableEntity(w, r, map[string]string{"sort": "Unknown sort field"})
			return
		}
		app.remoteError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{
		"movies": result.Movies,
		"metadata": envelop{
			"total":     result.Total,
			"page":      result.Page,
			"page_size": result.PageSize,
		},
	}, "")
}

func (app *Application) getMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	movie, err := app.services.Movies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, movies.ErrMovieNotFound) {
			app.Http.NotFound(w, r, "Movie not found")
			return
		}
		app.remoteError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "")
}

func (app *Application) createMovie(w http.ResponseWriter, r *http.Request) {
	movie, ok := app.submitForm(w, r, "")
	if ok {
		app.Http.Created(w, r, envelop{"movie": movie}, "Movie added successfully")
	}
}

func (app *Application) updateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	movie, ok := app.submitForm(w, r, id)
	if ok {
		app.Http.Ok(w, r, envelop{"movie": movie}, "Movie updated successfully")
	}
}

// submitForm sends a whole multipart form in one request, without an editor.
func (app *Application) submitForm(w http.ResponseWriter, r *http.Request, id string) (*models.Movie, bool) {
	maxBytes := app.cfg.Editor.MaxUploadBytes + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			app.Http.RequestEntityTooLarge(w, r, "Request body is too large")
			return nil, false
		}
		app.Http.BadRequest(w, r, "body must be multipart/form-data")
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	var draft models.MovieDraft
	if err := app.decoder.Decode(&draft, r.MultipartForm.Value); err != nil {
		app.Http.BadRequest(w, r, "invalid form fields")
		return nil, false
	}
	draft.ID = id

	files := attachment.New(app.log, app.uploadDir(), app.cfg.Editor.MaxUploadBytes)
	defer files.Close()
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		if _, err := files.Select(header.Filename, file); err != nil {
			app.attachmentError(w, r, err)
			return nil, false
		}
		draft.Attachment, _ = files.File()
	case !errors.Is(err, http.ErrMissingFile):
		app.Http.BadRequest(w, r, "invalid file part")
		return nil, false
	}

	movie, err := app.services.FormSubmission().Submit(r.Context(), &draft, sessionFromCtx(r))
	if err != nil {
		app.submissionError(w, r, err)
		return nil, false
	}
	movie.Image = movies.ResolveImage(app.cfg.API.UploadsBase(), movie.Image)
	return movie, true
}

func (app *Application) uploadDir() string {
	if app.cfg.Editor.PreviewDir != "" {
		return filepath.Join(app.cfg.Editor.PreviewDir, "uploads")
	}
	return filepath.Join(os.TempDir(), "moviecatalog-uploads")
}

func (app *Application) attachmentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, attachment.ErrTooLarge):
		app.Http.RequestEntityTooLarge(w, r, "Image is too large")
	case errors.Is(err, attachment.ErrNotAnImage), errors.Is(err, attachment.ErrEmptyFile):
		app.Http.UnprocessableEntity(w, r, map[string]string{
			string(validator.FieldAttachment): validator.Message(validator.FieldAttachment, validator.ReasonRequired),
		})
	default:
		app.Http.ServerError(w, r, err, "")
	}
}
