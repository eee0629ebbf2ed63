package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// Subscription is an open change feed for one user.
type Subscription struct {
	pubsub *redis.PubSub
	events chan domain.ChangeEvent
	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
	logger logger.Logger
}

// Subscribe opens the user's change feed. It returns once Redis has
// confirmed the subscription, so no event published afterwards is missed.
func (s *Store) Subscribe(ctx context.Context, owner string) (*Subscription, error) {
	ps := s.client.Subscribe(ctx, ChangesChannel(owner))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	sub := &Subscription{
		pubsub: ps,
		events: make(chan domain.ChangeEvent, 64),
		done:   make(chan struct{}),
		logger: s.logger.With(logger.UserID(owner)),
	}

	sub.wg.Add(1)
	go sub.pump(owner)

	return sub, nil
}

// Events yields change notifications in delivery order. The channel is
// closed after Close or when the connection is lost for good.
func (sub *Subscription) Events() <-chan domain.ChangeEvent {
	return sub.events
}

// Close unsubscribes and waits for the delivery goroutine to exit.
func (sub *Subscription) Close() error {
	var err error
	sub.closed.Do(func() {
		close(sub.done)
		err = sub.pubsub.Close()
		sub.wg.Wait()
	})
	return err
}

func (sub *Subscription) pump(owner string) {
	defer sub.wg.Done()
	defer close(sub.events)

	msgs := sub.pubsub.Channel()
	for {
		select {
		case <-sub.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev domain.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				sub.logger.Warn("dropping undecodable change event", logger.Error(err))
				continue
			}
			if ev.Owner != owner {
				continue
			}
			select {
			case sub.events <- ev:
			case <-sub.done:
				return
			}
		}
	}
}
