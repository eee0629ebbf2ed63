package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports ready once the remote store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRedis(r.Context(), d).OK {
			writeJSON(w, d.Logger, http.StatusServiceUnavailable, readyzResponse{Ready: false})
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, readyzResponse{Ready: true})
	}
}
