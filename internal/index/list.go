package index

import (
	"github.com/MrSnakeDoc/tabmark/internal/domain"
)

// List is an ordered, ID-unique sequence of bookmarks, newest first.
// It is not safe for concurrent use; the owner serializes access.
type List struct {
	items []domain.Bookmark
}

// NewList creates an empty list
func NewList() *List {
	return &List{}
}

// Replace swaps the whole content. Later duplicates of an ID are dropped.
func (l *List) Replace(bookmarks []domain.Bookmark) {
	seen := make(map[string]struct{}, len(bookmarks))
	items := make([]domain.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		items = append(items, b)
	}
	l.items = items
}

// Prepend inserts b at the front unless its ID is already present.
// Returns false when nothing was inserted.
func (l *List) Prepend(b domain.Bookmark) bool {
	if l.Has(b.ID) {
		return false
	}
	l.items = append([]domain.Bookmark{b}, l.items...)
	return true
}

// Swap replaces the entry with ID oldID by b, keeping its position.
func (l *List) Swap(oldID string, b domain.Bookmark) bool {
	i := l.indexOf(oldID)
	if i < 0 {
		return false
	}
	l.items[i] = b
	return true
}

// Remove deletes the entry with the given ID.
func (l *List) Remove(id string) bool {
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return true
}

// Has reports whether an entry with the given ID is present.
func (l *List) Has(id string) bool {
	return l.indexOf(id) >= 0
}

// HasURL reports whether an entry with the same URL (case-insensitive) is present.
func (l *List) HasURL(url string) bool {
	for _, b := range l.items {
		if domain.SameURL(b.URL, url) {
			return true
		}
	}
	return false
}

// Len returns the number of entries
func (l *List) Len() int {
	return len(l.items)
}

// Snapshot returns a copy of the entries.
func (l *List) Snapshot() []domain.Bookmark {
	out := make([]domain.Bookmark, len(l.items))
	copy(out, l.items)
	return out
}

// Clear empties the list
func (l *List) Clear() {
	l.items = nil
}

func (l *List) indexOf(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}
