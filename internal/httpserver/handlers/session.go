package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

type sessionResponse struct {
	SignedIn bool         `json:"signed_in"`
	User     *domain.User `json:"user,omitempty"`
}

type signInRequest struct {
	Email string `json:"email"`
}

// GetSession reports whether someone is signed in and, if so, who.
func GetSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := d.Session.Current()
		writeJSON(w, d.Logger, http.StatusOK, sessionResponse{SignedIn: u != nil, User: u})
	}
}

// SignIn starts a session. The bookmark list of the new user is loaded
// before the response is written.
func SignIn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signInRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, "invalid request body")
			return
		}
		if !strings.Contains(req.Email, "@") {
			writeError(w, d.Logger, http.StatusBadRequest, "a valid email is required")
			return
		}

		u, err := d.Session.SignIn(r.Context(), req.Email)
		if err != nil {
			d.Logger.Warn("sign in failed", logger.Error(err))
			writeError(w, d.Logger, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, d.Logger, http.StatusOK, sessionResponse{SignedIn: true, User: u})
	}
}

// SignOut ends the session. Signing out twice is not an error.
func SignOut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Session.SignOut(r.Context()); err != nil {
			d.Logger.Error("sign out failed", logger.Error(err))
			writeError(w, d.Logger, http.StatusInternalServerError, "sign out failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
