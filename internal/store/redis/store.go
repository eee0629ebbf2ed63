package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// Store is the remote bookmark collection. Rows live as JSON strings, each
// user has a sorted set of IDs, and every committed mutation is published on
// the user's change channel (including to the writer itself).
type Store struct {
	client *redis.Client
	logger logger.Logger
	now    func() time.Time
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log,
		now:    time.Now,
	}
}

// List returns the user's bookmarks, newest first.
func (s *Store) List(ctx context.Context, owner string) ([]domain.Bookmark, error) {
	ids, err := s.client.ZRevRange(ctx, UserBookmarksKey(owner), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}

	rows, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(rows))
	for i, row := range rows {
		raw, ok := row.(string)
		if !ok {
			// Index entry without a row, skip it
			s.logger.Debug("dangling bookmark index entry", logger.BookmarkID(ids[i]))
			continue
		}
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			s.logger.Warn("skipping undecodable bookmark row",
				logger.BookmarkID(ids[i]), logger.Error(err))
			continue
		}
		bookmarks = append(bookmarks, b)
	}

	// Scores have millisecond resolution; settle ties on the full timestamp.
	domain.SortNewestFirst(bookmarks)
	return bookmarks, nil
}

// Create persists a new bookmark and returns the canonical record.
func (s *Store) Create(ctx context.Context, url, title, owner string) (domain.Bookmark, error) {
	now := s.now().UTC()
	b := domain.Bookmark{
		ID:        ulid.Make().String(),
		URL:       url,
		Title:     title,
		Owner:     owner,
		CreatedAt: now,
	}

	data, err := json.Marshal(b)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to marshal bookmark: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, BookmarkKey(b.ID), data, 0)
		pipe.ZAdd(ctx, UserBookmarksKey(owner), redis.Z{Score: float64(now.UnixMilli()), Member: b.ID})
		return nil
	})
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to save bookmark: %w", err)
	}

	s.publish(ctx, domain.InsertEvent(b))
	return b, nil
}

// Delete removes a bookmark by ID. Deleting an unknown ID is not an error
// and publishes nothing.
func (s *Store) Delete(ctx context.Context, id string) error {
	b, err := s.get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, BookmarkKey(id))
		pipe.ZRem(ctx, UserBookmarksKey(b.Owner), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}

	s.publish(ctx, domain.DeleteEvent(id, b.Owner))
	return nil
}

func (s *Store) get(ctx context.Context, id string) (domain.Bookmark, error) {
	data, err := s.client.Get(ctx, BookmarkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Bookmark{}, fmt.Errorf("bookmark %s: %w", id, domain.ErrNotFound)
		}
		return domain.Bookmark{}, fmt.Errorf("failed to get bookmark: %w", err)
	}

	var b domain.Bookmark
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to unmarshal bookmark: %w", err)
	}
	return b, nil
}

// publish is best effort: the write is already committed, and readers
// recover missed events on their next full fetch.
func (s *Store) publish(ctx context.Context, ev domain.ChangeEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("failed to marshal change event", logger.BookmarkID(ev.ID), logger.Error(err))
		return
	}
	if err := s.client.Publish(ctx, ChangesChannel(ev.Owner), payload).Err(); err != nil {
		s.logger.Warn("failed to publish change event",
			logger.BookmarkID(ev.ID),
			logger.UserID(ev.Owner),
			logger.Error(err))
	}
}
