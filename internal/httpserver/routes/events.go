package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/mw"
)

func init() { Register("events", registerEvents) }

func registerEvents(r chi.Router, d deps.Deps) {
	if d.Events == nil {
		return
	}
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/events", handlers.Events(d))
}
