package main

import "net/http"

func (app *Application) requestDeletion(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	if err := app.services.Deletion.RequestDelete(id); err != nil {
		app.deletionError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"deletion": app.services.Deletion.Status()}, "Please confirm deletion")
}

func (app *Application) getDeletion(w http.ResponseWriter, r *http.Request) {
	app.Http.Ok(w, r, envelop{"deletion": app.services.Deletion.Status()}, "")
}

func (app *Application) confirmDeletion(w http.ResponseWriter, r *http.Request) {
	if err := app.services.Deletion.Confirm(r.Context()); err != nil {
		app.deletionError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Movie deleted successfully")
}

func (app *Application) cancelDeletion(w http.ResponseWriter, r *http.Request) {
	app.services.Deletion.Cancel()
	app.Http.Ok(w, r, envelop{"deletion": app.services.Deletion.Status()}, "Deletion cancelled")
}
