package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	file := filepath.Join(t.TempDir(), "session", "session.yaml")
	return NewManager([]byte("test-secret"), time.Hour, file, logger.Nop())
}

func TestUserIDForEmailIsStable(t *testing.T) {
	a := UserIDForEmail("Alice@Example.com")
	b := UserIDForEmail("  alice@example.com ")
	require.Equal(t, a, b)
	require.NotEqual(t, a, UserIDForEmail("bob@example.com"))
}

func TestSignInNotifiesWatchersInOrder(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	var calls []string
	m.Watch(func(u *domain.User) {
		require.NotNil(t, m.Current(), "state is visible to watchers")
		calls = append(calls, "first:"+u.Email)
	})
	m.Watch(func(u *domain.User) { calls = append(calls, "second:"+u.Email) })

	user, err := m.SignIn(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, UserIDForEmail("alice@example.com"), user.ID)
	require.Equal(t, []string{"first:alice@example.com", "second:alice@example.com"}, calls)
	require.NotEmpty(t, m.Token())
}

func TestConcurrentSignInsNotifyInStateOrder(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	entered := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	m.Watch(func(*domain.User) {
		once.Do(func() {
			close(entered)
			<-gate
		})
	})

	var mu sync.Mutex
	var last string
	m.Watch(func(u *domain.User) {
		mu.Lock()
		last = u.ID
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = m.SignIn(ctx, "alice@example.com")
	}()
	<-entered
	go func() {
		defer wg.Done()
		_, _ = m.SignIn(ctx, "bob@example.com")
	}()
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, m.Current().ID, last)
}

func TestSignInRejectsInvalidEmail(t *testing.T) {
	m := newTestManager(t)

	_, err := m.SignIn(context.Background(), "not-an-email")
	require.Error(t, err)
	require.Nil(t, m.Current())
}

func TestSignOutClearsSessionAndFile(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.SignIn(ctx, "alice@example.com")
	require.NoError(t, err)
	require.FileExists(t, m.file)

	var got []*domain.User
	cancel := m.Watch(func(u *domain.User) { got = append(got, u) })

	require.NoError(t, m.SignOut(ctx))
	require.Nil(t, m.Current())
	require.Empty(t, m.Token())
	require.NoFileExists(t, m.file)
	require.Equal(t, []*domain.User{nil}, got)

	cancel()
	_, err = m.SignIn(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1, "cancelled watcher is not called")
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	first := newTestManager(t)
	_, err := first.SignIn(ctx, "alice@example.com")
	require.NoError(t, err)

	second := NewManager([]byte("test-secret"), time.Hour, first.file, logger.Nop())
	notified := false
	second.Watch(func(u *domain.User) { notified = u != nil })

	user, err := second.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "alice@example.com", user.Email)
	require.True(t, notified)
}

func TestRestoreWithoutFile(t *testing.T) {
	m := newTestManager(t)

	user, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestRestoreRejectsExpiredOrForeignTokens(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	_, err := m.SignIn(ctx, "alice@example.com")
	require.NoError(t, err)

	other := NewManager([]byte("another-secret"), time.Hour, m.file, logger.Nop())
	user, err := other.Restore(ctx)
	require.NoError(t, err)
	require.Nil(t, user)

	later := NewManager([]byte("test-secret"), time.Hour, m.file, logger.Nop())
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	user, err = later.Restore(ctx)
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestVerify(t *testing.T) {
	m := newTestManager(t)
	_, err := m.SignIn(context.Background(), "alice@example.com")
	require.NoError(t, err)

	user, err := m.Verify(m.Token())
	require.NoError(t, err)
	require.Equal(t, UserIDForEmail("alice@example.com"), user.ID)

	_, err = m.Verify("garbage")
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRestoreIgnoresCorruptFile(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(m.file), 0o700))
	require.NoError(t, os.WriteFile(m.file, []byte("token: [unterminated"), 0o600))

	user, err := m.Restore(context.Background())
	require.NoError(t, err)
	require.Nil(t, user)
}
