package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/hub"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

const defaultMutationTimeout = 10 * time.Second

type addBookmarkRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type addBookmarkResponse struct {
	Bookmark domain.Bookmark `json:"bookmark"`
	Notice   domain.Notice   `json:"notice"`
}

type deleteBookmarkResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ListBookmarks returns the current list together with the sync state.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.Logger, http.StatusOK, hub.SnapshotOf(d.Bookmarks))
	}
}

// AddBookmark creates a bookmark and answers once the store has accepted or
// rejected it. The write outlives a client that hangs up mid-request.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	timeout := mutationTimeout(d)

	return func(w http.ResponseWriter, r *http.Request) {
		var req addBookmarkRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, d.Logger, http.StatusBadRequest, "invalid request body")
			return
		}

		url := strings.TrimSpace(req.URL)
		title := strings.TrimSpace(req.Title)
		if url == "" || title == "" {
			writeError(w, d.Logger, http.StatusBadRequest, "url and title are required")
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
		defer cancel()

		created, err := d.Bookmarks.Add(ctx, url, title)
		if err != nil {
			notice := domain.NoticeFor(err)
			writeJSON(w, d.Logger, statusFor(err), errorResponse{Error: err.Error(), Notice: &notice})
			return
		}

		writeJSON(w, d.Logger, http.StatusCreated, addBookmarkResponse{
			Bookmark: created,
			Notice:   domain.AddedNotice(),
		})
	}
}

// DeleteBookmark removes a bookmark without waiting for the store. A failed
// delete is reported to connected clients as a notice.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	timeout := mutationTimeout(d)

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, d.Logger, http.StatusBadRequest, "id is required")
			return
		}
		if d.Bookmarks.UserID() == "" {
			writeError(w, d.Logger, http.StatusUnauthorized, domain.ErrNoSession.Error())
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
		go func() {
			defer cancel()
			err := d.Bookmarks.Delete(ctx, id)
			if err == nil {
				return
			}
			d.Logger.Warn("background delete failed", logger.BookmarkID(id), logger.Error(err))
			if d.Events != nil && !errors.Is(err, domain.ErrNoSession) {
				d.Events.Notify(domain.NoticeFor(err))
			}
		}()

		writeJSON(w, d.Logger, http.StatusAccepted, deleteBookmarkResponse{ID: id, Status: "pending"})
	}
}

func mutationTimeout(d deps.Deps) time.Duration {
	if d.MutationTimeout > 0 {
		return d.MutationTimeout
	}
	return defaultMutationTimeout
}

// Events streams list snapshots and notices over a WebSocket.
func Events(d deps.Deps) http.HandlerFunc {
	return d.Events.ServeWS
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateURL):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAddFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
