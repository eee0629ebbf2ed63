package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
	"github.com/MrSnakeDoc/tabmark/internal/syncer"
)

// Bookmarks is the synchronizer as seen by the handlers.
type Bookmarks interface {
	List() []domain.Bookmark
	Loading() bool
	State() syncer.State
	UserID() string
	Changes() <-chan struct{}
	Add(ctx context.Context, url, title string) (domain.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

// Sessions is the session provider as seen by the handlers.
type Sessions interface {
	Current() *domain.User
	SignIn(ctx context.Context, email string) (*domain.User, error)
	SignOut(ctx context.Context) error
}

// Events pushes updates to connected clients.
type Events interface {
	Notify(n domain.Notice)
	ServeWS(w http.ResponseWriter, r *http.Request)
	Clients() int
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	TimeNow         func() time.Time // for testing, defaults to time.Now
	AllowedHosts    []string         // Host headers allowed to access the server
	AllowedCIDRS    []string         // IPs allowed to access healthz/readyz/infra endpoints
	TrustProxy      bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RedisClient     *redis.Client    // remote store connection, used by readiness checks
	Bookmarks       Bookmarks        // bookmark synchronizer of the active user
	Session         Sessions         // sign-in state
	Events          Events           // WebSocket fan-out
	ReloadTrigger   chan struct{}    // triggers an immediate resync
	MutationTimeout time.Duration    // bound on an add or background delete, defaults to 10s

	// RateLimit guards mutating routes. server.New fills it when nil.
	RateLimit func(http.Handler) http.Handler
}
