package homepage

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
)

// Entry is one importable bookmark.
type Entry struct {
	Category string
	Title    string
	URL      string
}

// MapBookmarks flattens the config into entries in file order. Entries
// without href are skipped, and a URL is kept only the first time it
// appears (case-insensitive).
func MapBookmarks(config BookmarksConfig) ([]Entry, error) {
	entries := make([]Entry, 0)

	for _, category := range config {
		for _, categoryName := range sortedKeys(category) {
			for _, bookmarkMap := range category[categoryName] {
				for _, bookmarkName := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[bookmarkName]
					// Each bookmark has a list with a single entry
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]

					url := strings.TrimSpace(entry.Href)
					if url == "" {
						continue
					}

					title := strings.TrimSpace(bookmarkName)
					if title == "" {
						title = entry.Abbr
					}
					if title == "" {
						title = url
					}

					if slices.ContainsFunc(entries, func(e Entry) bool { return domain.SameURL(e.URL, url) }) {
						continue
					}

					entries = append(entries, Entry{Category: categoryName, Title: title, URL: url})
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return entries, nil
}

// sortedKeys gives map iteration a stable order; Homepage maps usually hold
// a single key.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
