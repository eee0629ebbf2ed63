// Package syncer keeps one user's bookmark list consistent while mutations
// arrive from two uncoordinated sources: direct calls on this process and the
// remote store's change feed, which also echoes this process's own writes.
//
// Local mutations are applied optimistically. IDs of writes this process
// issued are parked in two pending sets (inserts, deletes) until the matching
// echo is seen, so an echo is absorbed instead of being applied twice.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/index"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

// Store is the remote bookmark collection.
type Store interface {
	List(ctx context.Context, owner string) ([]domain.Bookmark, error)
	Create(ctx context.Context, url, title, owner string) (domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
	Subscribe(ctx context.Context, owner string) (Subscription, error)
}

// Subscription is an open, user-scoped change feed.
type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Close() error
}

// State is the synchronizer lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateSynchronizing
	StateLive
)

func (s State) String() string {
	switch s {
	case StateSynchronizing:
		return "synchronizing"
	case StateLive:
		return "live"
	default:
		return "uninitialized"
	}
}

// Synchronizer owns the in-memory bookmark list of the active user.
type Synchronizer struct {
	store  Store
	logger logger.Logger
	now    func() time.Time
	newID  func() string

	// mu guards everything below up to lifecycle.
	mu             sync.Mutex
	state          State
	userID         string
	epoch          uint64 // bumped on every user change; late completions from older epochs are dropped
	fetches        int    // full fetches in flight
	list           *index.List
	provisional    index.IDSet // local-only IDs of adds awaiting the store's answer
	pendingInserts index.IDSet // canonical IDs of our adds awaiting their echo
	pendingDeletes index.IDSet // IDs of our deletes awaiting their echo

	// lifecycle serializes Initialize/Reset and guards the subscription fields.
	lifecycle sync.Mutex
	sub       Subscription
	stopPump  chan struct{}
	pumpDone  chan struct{}

	changes chan struct{}
}

// New creates an uninitialized synchronizer.
func New(store Store, log logger.Logger) *Synchronizer {
	return &Synchronizer{
		store:          store,
		logger:         log,
		now:            time.Now,
		newID:          uuid.NewString,
		list:           index.NewList(),
		provisional:    index.NewIDSet(),
		pendingInserts: index.NewIDSet(),
		pendingDeletes: index.NewIDSet(),
		changes:        make(chan struct{}, 1),
	}
}

// ─────────────────────────────────────────────────────────────────
// Read side
// ─────────────────────────────────────────────────────────────────

// List returns the current list, newest first. No I/O.
func (s *Synchronizer) List() []domain.Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Snapshot()
}

// Loading reports whether a full fetch is in flight.
func (s *Synchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateSynchronizing || s.fetches > 0
}

// State returns the lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the active user, or "" when uninitialized.
func (s *Synchronizer) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Changes signals after every list or loading change. Signals are coalesced:
// a reader should call List again rather than count signals.
func (s *Synchronizer) Changes() <-chan struct{} {
	return s.changes
}

func (s *Synchronizer) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// ─────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────

// Initialize binds the synchronizer to userID. An empty userID tears down
// like Reset. Switching users closes the previous subscription before the
// new one is opened. Re-initializing with the active user is a no-op.
//
// A failed fetch leaves the list empty and is returned wrapped in
// domain.ErrFetch; the change feed stays open either way.
func (s *Synchronizer) Initialize(ctx context.Context, userID string) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	return s.initialize(ctx, userID)
}

// initialize must be called with lifecycle held.
func (s *Synchronizer) initialize(ctx context.Context, userID string) error {
	if userID == "" {
		s.teardown()
		return nil
	}

	s.mu.Lock()
	same := s.userID == userID && s.state != StateUninitialized
	s.mu.Unlock()
	if same {
		return nil
	}

	s.teardown()

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.userID = userID
	s.state = StateSynchronizing
	s.mu.Unlock()
	s.signal()

	log := s.logger.With(logger.UserID(userID))
	log.Info("synchronizing bookmarks")

	// Subscribe before fetching: events raised while the fetch is in flight
	// are buffered and applied afterwards, and the duplicate checks make
	// replaying ones already covered by the fetch harmless.
	sub, subErr := s.store.Subscribe(ctx, userID)
	if subErr != nil {
		log.Error("failed to open change feed", logger.Error(subErr))
	}

	bookmarks, fetchErr := s.store.List(ctx, userID)

	s.mu.Lock()
	if fetchErr == nil {
		s.applyFetchedLocked(bookmarks)
	}
	s.state = StateLive
	s.mu.Unlock()
	s.signal()

	if sub != nil {
		s.sub = sub
		s.stopPump = make(chan struct{})
		s.pumpDone = make(chan struct{})
		go s.pump(epoch, sub.Events(), s.stopPump, s.pumpDone)
		log.Info("change feed opened")
	}

	if fetchErr != nil {
		log.Error("initial bookmark fetch failed", logger.Error(fetchErr))
		return fmt.Errorf("%w: %w", domain.ErrFetch, fetchErr)
	}
	if subErr != nil {
		return fmt.Errorf("open change feed: %w", subErr)
	}

	log.Info("bookmarks synchronized", logger.Int("count", len(bookmarks)))
	return nil
}

// Reset closes the change feed and clears all local state.
func (s *Synchronizer) Reset() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.teardown()
}

// Close is Reset; it lets the synchronizer be used as an io.Closer.
func (s *Synchronizer) Close() error {
	s.Reset()
	return nil
}

// teardown must be called with lifecycle held.
func (s *Synchronizer) teardown() {
	if s.stopPump != nil {
		close(s.stopPump)
		<-s.pumpDone
		s.stopPump, s.pumpDone = nil, nil
	}
	if s.sub != nil {
		if err := s.sub.Close(); err != nil {
			s.logger.Warn("failed to close change feed", logger.Error(err))
		}
		s.sub = nil
	}

	s.mu.Lock()
	wasActive := s.state != StateUninitialized
	prev := s.userID
	s.epoch++
	s.userID = ""
	s.state = StateUninitialized
	s.fetches = 0
	s.list.Clear()
	s.provisional = index.NewIDSet()
	s.pendingInserts = index.NewIDSet()
	s.pendingDeletes = index.NewIDSet()
	s.mu.Unlock()

	if wasActive {
		s.logger.Info("bookmark sync stopped", logger.UserID(prev))
		s.signal()
	}
}

// SessionSource is the subset of the session provider the synchronizer follows.
type SessionSource interface {
	Current() *domain.User
	Watch(fn func(*domain.User)) (cancel func())
}

// Follow makes user transitions of src drive Initialize and Reset. It
// applies the current user immediately and returns a function that stops
// following.
//
// Notifications only act as a wake-up: the user is always re-read from src
// under the lifecycle lock, so notifications delivered out of order still
// leave the synchronizer scoped to the latest session user.
func (s *Synchronizer) Follow(ctx context.Context, src SessionSource) (stop func()) {
	apply := func(*domain.User) {
		s.lifecycle.Lock()
		defer s.lifecycle.Unlock()

		id := ""
		if u := src.Current(); u != nil {
			id = u.ID
		}
		if err := s.initialize(ctx, id); err != nil {
			s.logger.Warn("session change did not fully synchronize", logger.UserID(id), logger.Error(err))
		}
	}
	cancel := src.Watch(apply)
	apply(nil)
	return cancel
}

// ─────────────────────────────────────────────────────────────────
// Mutations
// ─────────────────────────────────────────────────────────────────

// Add creates a bookmark. The caller validates that url and title are not
// empty. A provisional entry is shown at the front of the list until the
// store answers; on failure it is rolled back and domain.ErrAddFailed is
// returned. domain.ErrDuplicateURL is returned when the URL is already in
// the local list (case-insensitive).
func (s *Synchronizer) Add(ctx context.Context, url, title string) (domain.Bookmark, error) {
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return domain.Bookmark{}, domain.ErrNoSession
	}
	if s.list.HasURL(url) {
		s.mu.Unlock()
		return domain.Bookmark{}, fmt.Errorf("%w: %s", domain.ErrDuplicateURL, url)
	}

	owner, epoch := s.userID, s.epoch
	tempID := s.newID()
	s.list.Prepend(domain.Bookmark{
		ID:        tempID,
		URL:       url,
		Title:     title,
		Owner:     owner,
		CreatedAt: s.now(),
	})
	s.provisional.Add(tempID)
	s.mu.Unlock()
	s.signal()

	created, err := s.store.Create(ctx, url, title, owner)

	s.mu.Lock()
	if epoch != s.epoch {
		// The user changed while the request was in flight; the list it
		// belonged to is gone.
		s.mu.Unlock()
		if err != nil {
			return domain.Bookmark{}, fmt.Errorf("%w: %w", domain.ErrAddFailed, err)
		}
		return created, nil
	}
	s.provisional.Take(tempID)

	if err != nil {
		s.list.Remove(tempID)
		s.mu.Unlock()
		s.signal()
		s.logger.Warn("bookmark create failed, rolled back",
			logger.UserID(owner), logger.String("url", url), logger.Error(err))
		return domain.Bookmark{}, fmt.Errorf("%w: %w", domain.ErrAddFailed, err)
	}

	switch {
	case s.list.Has(created.ID):
		// The echo beat the response and was applied as a foreign insert.
		s.list.Remove(tempID)
	default:
		s.pendingInserts.Add(created.ID)
		if !s.list.Swap(tempID, created) {
			s.list.Prepend(created)
		}
	}
	s.mu.Unlock()
	s.signal()

	s.logger.Debug("bookmark created", logger.UserID(owner), logger.BookmarkID(created.ID))
	return created, nil
}

// Delete removes a bookmark. Unknown IDs are ignored, as are provisional
// entries whose create has not been answered yet. The entry disappears from
// the list immediately; if the store rejects the delete, the full list is
// refetched and domain.ErrDeleteSync is returned.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return domain.ErrNoSession
	}
	if !s.list.Has(id) {
		s.mu.Unlock()
		return nil
	}
	if s.provisional.Contains(id) {
		s.mu.Unlock()
		s.logger.Debug("ignoring delete of unconfirmed bookmark", logger.BookmarkID(id))
		return nil
	}

	owner, epoch := s.userID, s.epoch
	s.pendingDeletes.Add(id)
	s.list.Remove(id)
	s.mu.Unlock()
	s.signal()

	err := s.store.Delete(ctx, id)
	if err == nil {
		return nil
	}

	s.mu.Lock()
	stale := epoch != s.epoch
	if !stale {
		s.pendingDeletes.Take(id)
	}
	s.mu.Unlock()

	s.logger.Warn("bookmark delete failed, refetching",
		logger.UserID(owner), logger.BookmarkID(id), logger.Error(err))

	if stale {
		return fmt.Errorf("%w: %w", domain.ErrDeleteSync, err)
	}
	if rerr := s.Refresh(ctx); rerr != nil {
		return fmt.Errorf("%w: %w", domain.ErrDeleteSync, errors.Join(err, rerr))
	}
	return fmt.Errorf("%w: %w", domain.ErrDeleteSync, err)
}

// Refresh refetches the full list from the store. Provisional entries still
// awaiting their create are kept at the front and entries with a delete in
// flight stay hidden. On failure the list keeps its last known content.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return domain.ErrNoSession
	}
	owner, epoch := s.userID, s.epoch
	s.fetches++
	s.mu.Unlock()
	s.signal()

	bookmarks, err := s.store.List(ctx, owner)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return nil
	}
	s.fetches--
	if err == nil {
		s.applyFetchedLocked(bookmarks)
	}
	s.mu.Unlock()
	s.signal()

	if err != nil {
		s.logger.Error("bookmark refresh failed", logger.UserID(owner), logger.Error(err))
		return fmt.Errorf("%w: %w", domain.ErrFetch, err)
	}
	return nil
}

func (s *Synchronizer) applyFetchedLocked(fetched []domain.Bookmark) {
	merged := make([]domain.Bookmark, 0, len(fetched)+s.provisional.Len())
	for _, b := range s.list.Snapshot() {
		if s.provisional.Contains(b.ID) {
			merged = append(merged, b)
		}
	}
	for _, b := range fetched {
		if s.pendingDeletes.Contains(b.ID) {
			continue
		}
		merged = append(merged, b)
	}
	s.list.Replace(merged)
}

// ─────────────────────────────────────────────────────────────────
// Change feed
// ─────────────────────────────────────────────────────────────────

// handleEvent applies one change notification. Echoes of this process's own
// writes are absorbed; anything else is treated as done elsewhere.
func (s *Synchronizer) handleEvent(ev domain.ChangeEvent) {
	s.mu.Lock()
	s.handleLocked(s.epoch, ev)
}

func (s *Synchronizer) pump(epoch uint64, events <-chan domain.ChangeEvent, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				s.logger.Warn("change feed closed by the store")
				return
			}
			s.mu.Lock()
			s.handleLocked(epoch, ev)
		}
	}
}

// handleLocked is entered with mu held and releases it.
func (s *Synchronizer) handleLocked(epoch uint64, ev domain.ChangeEvent) {
	if epoch != s.epoch || s.state == StateUninitialized || (ev.Owner != "" && ev.Owner != s.userID) {
		s.mu.Unlock()
		return
	}

	changed := false
	switch ev.Kind {
	case domain.EventInsert:
		switch {
		case s.pendingInserts.Take(ev.ID):
			// echo of our own Add
		case ev.Record == nil:
			s.logger.Warn("insert event without record", logger.BookmarkID(ev.ID))
		default:
			changed = s.list.Prepend(*ev.Record)
		}
	case domain.EventDelete:
		if !s.pendingDeletes.Take(ev.ID) {
			changed = s.list.Remove(ev.ID)
		}
	default:
		s.logger.Debug("ignoring unknown change event", logger.String("type", string(ev.Kind)))
	}
	s.mu.Unlock()

	if changed {
		s.signal()
	}
}
