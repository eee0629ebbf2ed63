package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSameURL(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "identical", a: "https://a.com", b: "https://a.com", want: true},
		{name: "case differs", a: "http://X.com", b: "http://x.com", want: true},
		{name: "different path", a: "https://a.com/x", b: "https://a.com/y", want: false},
		{name: "trailing slash is significant", a: "https://a.com/", b: "https://a.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameURL(tt.a, tt.b); got != tt.want {
				t.Errorf("SameURL(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bookmarks := []Bookmark{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(time.Hour)},
	}

	SortNewestFirst(bookmarks)

	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if bookmarks[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, bookmarks[i].ID, id)
		}
	}
}

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		kind    NoticeKind
		message string
	}{
		{
			name:    "duplicate url",
			err:     fmt.Errorf("add: %w", ErrDuplicateURL),
			kind:    NoticeError,
			message: "This URL is already bookmarked!",
		},
		{
			name:    "add failed",
			err:     ErrAddFailed,
			kind:    NoticeError,
			message: "Failed to add bookmark. Please try again.",
		},
		{
			name: "delete sync",
			err:  ErrDeleteSync,
			kind: NoticeWarning,
		},
		{
			name:    "unknown error",
			err:     errors.New("boom"),
			kind:    NoticeError,
			message: "Something went wrong. Please try again.",
		},
		{
			name:    "delete failure outside sync",
			err:     fmt.Errorf("delete: %w", ErrNotFound),
			kind:    NoticeError,
			message: "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NoticeFor(tt.err)
			if n.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", n.Kind, tt.kind)
			}
			if tt.message != "" && n.Message != tt.message {
				t.Errorf("message = %q, want %q", n.Message, tt.message)
			}
			if n.TTLMs != 4000 {
				t.Errorf("ttl = %d, want 4000", n.TTLMs)
			}
		})
	}
}
