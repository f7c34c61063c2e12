package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (app *Application) routes() http.Handler {
	router := chi.NewRouter()
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		app.Http.NotFound(w, r, "Page not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		app.Http.Response(w, r, nil, "", http.StatusMethodNotAllowed)
	})
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(app.Recoverer)
	router.Use(app.RateLimiter)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthcheck", app.healthcheck)
		r.Route("/session", func(r chi.Router) {
			r.Post("/", app.login)
			r.With(app.requireSession).Get("/", app.getSession)
			r.Delete("/", app.logout)
		})
		r.Group(func(r chi.Router) {
			r.Use(app.requireSession)
			r.Get("/movies", app.listMovies)
			r.Get("/movies/{id}", app.getMovie)
		})
		r.Group(func(r chi.Router) {
			r.Use(app.requireSession)
			r.Use(app.requireAdmin)
			r.Post("/movies", app.createMovie)
			r.Put("/movies/{id}", app.updateMovie)
			r.Post("/movies/{id}/delete", app.requestDeletion)
			r.Route("/deletion", func(r chi.Router) {
				r.Get("/", app.getDeletion)
				r.Post("/confirm", app.confirmDeletion)
				r.Post("/cancel", app.cancelDeletion)
			})
			r.Route("/editors", func(r chi.Router) {
				r.Post("/", app.openEditor)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.getEditor)
					r.Delete("/", app.discardEditor)
					r.Patch("/fields", app.setEditorFields)
					r.Post("/validate", app.validateEditor)
					r.Put("/image", app.selectEditorImage)
					r.Get("/image", app.getEditorImage)
					r.Delete("/image", app.clearEditorImage)
					r.Post("/submit", app.submitEditor)
				})
			})
		})
	})
	return router
}
