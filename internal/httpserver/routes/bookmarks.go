package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/mw"
)

func init() { Register("bookmarks", registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Get("/", handlers.ListBookmarks(d))
		r.With(d.RateLimit).Post("/", handlers.AddBookmark(d))
		r.With(d.RateLimit).Delete("/{id}", handlers.DeleteBookmark(d))
	})
}
