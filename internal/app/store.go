package app

import (
	"context"

	redisstore "github.com/MrSnakeDoc/tabmark/internal/store/redis"
	"github.com/MrSnakeDoc/tabmark/internal/syncer"
)

// remoteStore adapts the Redis store to syncer.Store.
type remoteStore struct {
	*redisstore.Store
}

func (s remoteStore) Subscribe(ctx context.Context, owner string) (syncer.Subscription, error) {
	sub, err := s.Store.Subscribe(ctx, owner)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
