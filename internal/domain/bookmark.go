package domain

import (
	"sort"
	"strings"
	"time"
)

// Bookmark is a user-owned URL entry.
// Bookmarks are never edited in place: they are created, then deleted.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned by the remote store.
	// Provisional entries carry a local-only ID until the store answers.
	ID string `json:"id"`

	// URL is the bookmarked address as typed by the user.
	URL string `json:"url"`

	// Title is the display label.
	Title string `json:"title"`

	// ─────────────────────────────
	// Ownership & metadata
	// ─────────────────────────────

	// Owner is the user ID the row is scoped to.
	Owner string `json:"user_id"`

	// CreatedAt is set by the store on persist, or to "now" for provisional entries.
	CreatedAt time.Time `json:"created_at"`
}

// SameURL reports whether two URLs are equal under case-insensitive comparison.
func SameURL(a, b string) bool {
	return strings.EqualFold(a, b)
}

// SortNewestFirst orders bookmarks by CreatedAt descending.
// The sort is stable so entries with equal timestamps keep their relative order.
func SortNewestFirst(bookmarks []Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
	})
}
