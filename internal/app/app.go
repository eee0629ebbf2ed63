package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/tabmark/internal/config"
	"github.com/MrSnakeDoc/tabmark/internal/domain"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tabmark/internal/httpserver/hub"
	"github.com/MrSnakeDoc/tabmark/internal/logger"
	"github.com/MrSnakeDoc/tabmark/internal/redis"
	"github.com/MrSnakeDoc/tabmark/internal/scheduler"
	"github.com/MrSnakeDoc/tabmark/internal/session"
	"github.com/MrSnakeDoc/tabmark/internal/sources/homepage"
	redisstore "github.com/MrSnakeDoc/tabmark/internal/store/redis"
	"github.com/MrSnakeDoc/tabmark/internal/syncer"
	"github.com/MrSnakeDoc/tabmark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	redisClient *goredis.Client
	session     *session.Manager
	sync        *syncer.Synchronizer
	hub         *hub.Hub
	resyncer    *scheduler.Resyncer
	server      *httpserver.Server
}

// New connects to Redis and builds every component. Nothing runs until Run
// or Import is called.
func New(cfg *config.Config, loggerClient logger.Logger) (*App, error) {
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	loggerClient.Info("Redis initialized successfully")

	store := remoteStore{redisstore.NewStore(redisClient, loggerClient)}
	sessions := session.NewManager([]byte(cfg.SessionSecret), cfg.SessionTTL, cfg.SessionFile, loggerClient)
	synchronizer := syncer.New(store, loggerClient)
	events := hub.New(synchronizer, loggerClient)

	// Create manual resync trigger channel
	resyncTrigger := make(chan struct{}, 1)
	resyncer := scheduler.NewResyncer(synchronizer, loggerClient, cfg.ResyncInterval, resyncTrigger)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		AllowedHosts:  cfg.AllowedHosts,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		TrustProxy:    cfg.TrustProxy,
		RedisClient:   redisClient,
		Bookmarks:     synchronizer,
		Session:       sessions,
		Events:        events,
		ReloadTrigger: resyncTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		redisClient: redisClient,
		session:     sessions,
		sync:        synchronizer,
		hub:         events,
		resyncer:    resyncer,
		server:      httpserver.New(cfg, loggerClient, d),
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down in reverse order.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting tabmark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.session.Restore(ctx); err != nil {
		a.logger.Warn("failed to restore session", logger.Error(err))
	}

	// Follow applies the restored user right away, so the list is loaded
	// before the server accepts requests.
	stopFollow := a.sync.Follow(ctx, a.session)
	go a.hub.Run(ctx)

	if err := a.resyncer.Start(ctx); err != nil {
		stopFollow()
		return fmt.Errorf("failed to start resyncer: %w", err)
	}
	a.logger.Info("resyncer started", logger.Duration("interval", a.cfg.ResyncInterval))

	if a.cfg.ImportFile != "" {
		go a.importAtStartup(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.resyncer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.hub.Close()
	stopFollow()
	_ = a.sync.Close()
	a.closeRedis()

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ tabmark stopped cleanly")
	return nil
}

// Import adds the bookmarks of a Homepage bookmarks.yaml for the persisted
// session user, then releases everything.
func (a *App) Import(ctx context.Context, file string) (homepage.Result, error) {
	defer a.closeRedis()

	user, err := a.session.Restore(ctx)
	if err != nil {
		return homepage.Result{}, err
	}
	if user == nil {
		return homepage.Result{}, domain.ErrNoSession
	}

	if err := a.sync.Initialize(ctx, user.ID); err != nil {
		_ = a.sync.Close()
		return homepage.Result{}, err
	}
	defer func() { _ = a.sync.Close() }()

	return homepage.NewImporter(file, a.sync, a.logger).Import(ctx)
}

func (a *App) importAtStartup(ctx context.Context) {
	if a.session.Current() == nil {
		a.logger.Warn("import file configured but nobody is signed in, skipping",
			logger.String("file", a.cfg.ImportFile))
		return
	}
	if _, err := homepage.NewImporter(a.cfg.ImportFile, a.sync, a.logger).Import(ctx); err != nil {
		a.logger.Error("startup import failed", logger.String("file", a.cfg.ImportFile), logger.Error(err))
	}
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
		return
	}
	a.logger.Info("✅ Redis closed cleanly")
}
