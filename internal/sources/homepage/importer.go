package homepage

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// Adder receives imported bookmarks.
type Adder interface {
	Add(ctx context.Context, url, title string) (domain.Bookmark, error)
}

// Result counts what an import did.
type Result struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Importer feeds a Homepage bookmarks.yaml into the active user's list.
type Importer struct {
	loader *Loader
	target Adder
	logger logger.Logger
}

func NewImporter(filePath string, target Adder, log logger.Logger) *Importer {
	return &Importer{
		loader: NewLoader(filePath),
		target: target,
		logger: log,
	}
}

// Import adds every entry of the file, oldest first so the file's first
// entry ends up on top. URLs already bookmarked are counted and skipped;
// individual store failures are counted and do not stop the import.
func (im *Importer) Import(ctx context.Context) (Result, error) {
	var res Result

	config, err := im.loader.Load()
	if err != nil {
		return res, err
	}
	entries, err := MapBookmarks(config)
	if err != nil {
		return res, err
	}

	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		e := entries[i]
		_, err := im.target.Add(ctx, e.URL, e.Title)
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, domain.ErrDuplicateURL):
			res.Duplicates++
		case errors.Is(err, domain.ErrNoSession):
			return res, fmt.Errorf("import aborted: %w", err)
		default:
			res.Failed++
			im.logger.Warn("failed to import bookmark",
				logger.String("url", e.URL), logger.String("category", e.Category), logger.Error(err))
		}
	}

	im.logger.Info("bookmark import finished",
		logger.Int("added", res.Added),
		logger.Int("duplicates", res.Duplicates),
		logger.Int("failed", res.Failed))
	return res, nil
}
