package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateURL is returned when the URL already exists in the local list.
	ErrDuplicateURL = errors.New("duplicate url")
	// ErrAddFailed is returned when the remote create failed and the optimistic insert was rolled back.
	ErrAddFailed = errors.New("add failed")
	// ErrDeleteSync is returned when the remote delete failed and the list was refetched.
	ErrDeleteSync = errors.New("delete sync failed")
	// ErrFetch is returned when a full list fetch failed.
	ErrFetch = errors.New("fetch failed")
	// ErrNoSession is returned when an operation needs a signed-in user.
	ErrNoSession = errors.New("no active session")
	// ErrNotFound is returned when a bookmark id is unknown to the store.
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken is returned when a session token fails verification or has expired.
	ErrInvalidToken = errors.New("invalid token")
)

// NoticeKind selects how a notice is rendered.
type NoticeKind string

const (
	// NoticeSuccess confirms a completed action.
	NoticeSuccess NoticeKind = "success"
	// NoticeError reports an action that did not happen.
	NoticeError NoticeKind = "error"
	// NoticeWarning reports an action whose outcome was corrected by a refresh.
	NoticeWarning NoticeKind = "warning"
)

// NoticeTTL is how long a notice stays visible.
const NoticeTTL = 4 * time.Second

// Notice is a transient, user-facing message (a toast).
type Notice struct {
	Message string     `json:"message"`
	Kind    NoticeKind `json:"type"`
	TTLMs   int64      `json:"ttl_ms"`
}

func newNotice(kind NoticeKind, msg string) Notice {
	return Notice{Message: msg, Kind: kind, TTLMs: NoticeTTL.Milliseconds()}
}

// AddedNotice is shown after a successful add.
func AddedNotice() Notice {
	return newNotice(NoticeSuccess, "Bookmark added successfully!")
}

// NoticeFor translates an operation error into the message shown to the user.
func NoticeFor(err error) Notice {
	switch {
	case errors.Is(err, ErrDuplicateURL):
		return newNotice(NoticeError, "This URL is already bookmarked!")
	case errors.Is(err, ErrAddFailed):
		return newNotice(NoticeError, "Failed to add bookmark. Please try again.")
	case errors.Is(err, ErrDeleteSync):
		return newNotice(NoticeWarning, "Could not delete bookmark, list was refreshed.")
	case errors.Is(err, ErrFetch):
		return newNotice(NoticeError, "Failed to load bookmarks.")
	case errors.Is(err, ErrNoSession):
		return newNotice(NoticeError, "Please sign in first.")
	default:
		return newNotice(NoticeError, "Something went wrong. Please try again.")
	}
}
