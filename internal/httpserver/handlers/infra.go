package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/syncer"
)

type componentStatus struct {
	OK        bool   `json:"ok"`
	Mode      string `json:"mode,omitempty"`
	Impact    string `json:"impact,omitempty"`
	Error     string `json:"error,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Bookmarks *int   `json:"bookmarks,omitempty"`
	Clients   *int   `json:"clients,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"redis": checkRedis(r.Context(), d),
			"sync":  checkSync(d),
		}
		if d.Events != nil {
			clients := d.Events.Clients()
			components["events"] = componentStatus{OK: true, Clients: &clients}
		}

		writeJSON(w, d.Logger, http.StatusOK, infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		})
	}
}

func determineSyncMode(components map[string]componentStatus) string {
	if redis, ok := components["redis"]; ok && !redis.OK {
		return "offline" // no store, no change feed
	}
	if s, ok := components["sync"]; ok && !s.OK {
		return "idle" // nobody signed in
	}
	return "live"
}

func checkSync(d deps.Deps) componentStatus {
	if d.Bookmarks == nil {
		return componentStatus{OK: false, Error: "synchronizer not initialized"}
	}
	state := d.Bookmarks.State()
	count := len(d.Bookmarks.List())
	return componentStatus{
		OK:        state != syncer.StateUninitialized,
		Mode:      state.String(),
		UserID:    d.Bookmarks.UserID(),
		Bookmarks: &count,
	}
}

func checkRedis(parent context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sync-disabled",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "sync-disabled",
			Error:  err.Error(),
		}
	}

	return componentStatus{OK: true, Mode: "optimal"}
}
