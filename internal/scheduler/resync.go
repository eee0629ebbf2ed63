package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// Refresher is the part of the synchronizer a resync drives.
type Refresher interface {
	UserID() string
	Refresh(ctx context.Context) error
}

// Resyncer periodically refetches the active user's full list, and on demand
// through its manual trigger. It repairs drift from change notifications
// missed while the feed was down.
type Resyncer struct {
	target        Refresher
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	done          chan struct{}
	stopOnce      sync.Once
	started       atomic.Bool
	manualTrigger chan struct{}
}

// NewResyncer creates a resyncer. An interval <= 0 disables the periodic
// resync; the manual trigger still works.
func NewResyncer(target Refresher, log logger.Logger, interval time.Duration, manualTrigger chan struct{}) *Resyncer {
	return &Resyncer{
		target:        target,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start runs the resync loop in the background.
func (r *Resyncer) Start(ctx context.Context) error {
	r.started.Store(true)

	go func() {
		defer close(r.done)

		var tick <-chan time.Time
		if r.interval > 0 {
			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				if err := r.Resync(ctx); err != nil {
					r.logger.Error("periodic resync failed", logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual resync triggered")
				if err := r.Resync(ctx); err != nil {
					r.logger.Error("manual resync failed", logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the loop and waits for a running resync to finish.
func (r *Resyncer) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	if r.started.Load() {
		<-r.done
	}
}

// Resync refetches once. Nothing happens while nobody is signed in.
func (r *Resyncer) Resync(ctx context.Context) error {
	user := r.target.UserID()
	if user == "" {
		r.logger.Debug("no active session, skipping resync")
		return nil
	}

	start := time.Now()
	if err := r.target.Refresh(ctx); err != nil {
		return err
	}
	r.logger.Debug("resync completed", logger.UserID(user), logger.Duration("took", time.Since(start)))
	return nil
}
