package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tabmark/internal/config"
	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
	"github.com/MrSnakeDoc/tabmark/internal/session"
	redisstore "github.com/MrSnakeDoc/tabmark/internal/store/redis"
)

const importYAML = `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
    - Go Docs:
        - href: https://go.dev/doc/
`

func testConfig(t *testing.T, addr string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		ListenPort:          ":0",
		ShutdownTimeout:     time.Second,
		SessionFile:         filepath.Join(dir, "session.yaml"),
		SessionSecret:       "test-secret",
		SessionTTL:          time.Hour,
		RedisAddr:           addr,
		RedisDT:             time.Second,
		RedisRT:             time.Second,
		RedisWT:             time.Second,
		RedisPoolSize:       2,
		RedisConnectTimeout: time.Second,
		RedisRetryInterval:  10 * time.Millisecond,
		RedisMaxWait:        50 * time.Millisecond,
		RedisPingTimeout:    100 * time.Millisecond,
		RedisWarnThreshold:  1,
		RateBurst:           10,
		RatePerMin:          60,
	}
}

func TestImportForPersistedSession(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr.Addr())
	ctx := context.Background()

	user, err := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL, cfg.SessionFile, logger.Nop()).
		SignIn(ctx, "alice@example.com")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "bookmarks.yaml")
	require.NoError(t, os.WriteFile(file, []byte(importYAML), 0o644))

	a, err := New(cfg, logger.Nop())
	require.NoError(t, err)
	res, err := a.Import(ctx, file)
	require.NoError(t, err)
	require.Equal(t, 2, res.Added)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	stored, err := redisstore.NewStore(client, logger.Nop()).List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// A second run finds both URLs already bookmarked.
	a, err = New(cfg, logger.Nop())
	require.NoError(t, err)
	res, err = a.Import(ctx, file)
	require.NoError(t, err)
	require.Equal(t, 0, res.Added)
	require.Equal(t, 2, res.Duplicates)
}

func TestImportWithoutSession(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := New(testConfig(t, mr.Addr()), logger.Nop())
	require.NoError(t, err)

	_, err = a.Import(context.Background(), "unused.yaml")
	require.ErrorIs(t, err, domain.ErrNoSession)
}

func TestNewFailsWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(testConfig(t, addr), logger.Nop())
	require.Error(t, err)
}

func TestRemoteStoreSubscribeErrorIsNilInterface(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	s := remoteStore{redisstore.NewStore(client, logger.Nop())}
	sub, err := s.Subscribe(context.Background(), "u1")
	require.Error(t, err)
	require.Nil(t, sub)
}
