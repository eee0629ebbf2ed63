package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/mw"
)

func init() { Register("session", registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	r.Route("/api/session", func(r chi.Router) {
		r.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		r.Get("/", handlers.GetSession(d))
		r.With(d.RateLimit).Post("/", handlers.SignIn(d))
		r.With(d.RateLimit).Delete("/", handlers.SignOut(d))
	})
}
