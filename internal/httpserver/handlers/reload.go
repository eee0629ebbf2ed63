package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload triggers an immediate full resync of the active user's list.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			writeError(w, d.Logger, http.StatusServiceUnavailable, "resync is not available")
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual resync triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusAccepted, reloadResponse{
				Triggered: true,
				Message:   "Resync triggered",
			})
		default:
			d.Logger.Warn("resync already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, d.Logger, http.StatusTooManyRequests, reloadResponse{
				Message: "Resync already pending, please wait",
			})
		}
	}
}
