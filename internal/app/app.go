package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/catmanduz/link-reminder/internal/alarm"
	"github.com/catmanduz/link-reminder/internal/config"
	"github.com/catmanduz/link-reminder/internal/dispatcher"
	"github.com/catmanduz/link-reminder/internal/httpserver"
	"github.com/catmanduz/link-reminder/internal/httpserver/deps"
	"github.com/catmanduz/link-reminder/internal/index"
	"github.com/catmanduz/link-reminder/internal/links"
	"github.com/catmanduz/link-reminder/internal/logger"
	"github.com/catmanduz/link-reminder/internal/notify"
	"github.com/catmanduz/link-reminder/internal/redis"
	"github.com/catmanduz/link-reminder/internal/reminder"
	"github.com/catmanduz/link-reminder/internal/scheduler"
	redisstore "github.com/catmanduz/link-reminder/internal/store/redis"
	"github.com/catmanduz/link-reminder/internal/version"
)

// Backend is what both the link repository and the timer service persist into.
type Backend interface {
	links.Store
	alarm.Store
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	alarms      *alarm.Service
	rehydrator  *scheduler.StartupRehydrator
	importer    *scheduler.BookmarkImporter
	gc          *scheduler.OrphanCollector
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	var (
		backend     Backend
		pinger      deps.Pinger
		stats       deps.StoreStats
		redisClient *goredis.Client
	)
	switch cfg.Store {
	case config.StoreRedis:
		// Fail fast: without the store nothing survives a restart
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
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
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		store := redisstore.NewStore(client)
		backend, pinger, redisClient = store, store, client
	default:
		loggerClient.Warn("using in-memory store, links and reminders are lost on restart")
		mem := index.NewMemoryIndex()
		backend, stats = mem, mem
	}

	repo := links.NewRepository(backend, loggerClient)
	alarms := alarm.New(backend, loggerClient, alarm.WithPollInterval(cfg.AlarmPollInterval))
	reminders := reminder.New(repo, alarms, loggerClient)
	repo.SetReminderCanceler(reminders)

	alerts := notify.NewCenter(loggerClient)
	disp := dispatcher.New(repo, reminders, alerts, loggerClient,
		dispatcher.WithSnoozeOffsets(cfg.SnoozeOffsets))
	alarms.OnFire(disp.HandleFire)

	rehydrator := scheduler.NewStartupRehydrator(reminders, loggerClient, cfg.RehydrateTimeout)
	gc := scheduler.NewOrphanCollector(reminders, loggerClient, cfg.OrphanGCInterval)

	// Bookmark import (if a bookmarks file is configured)
	var importer *scheduler.BookmarkImporter
	var importTrigger chan struct{}
	if cfg.BookmarkFile != "" {
		loggerClient.Info("bookmark file configured, initializing bookmark importer",
			logger.String("file", cfg.BookmarkFile))
		importTrigger = make(chan struct{}, 1)
		importer = scheduler.NewBookmarkImporter(
			cfg.BookmarkFile,
			repo,
			loggerClient,
			cfg.ImportInterval,
			importTrigger,
		)
	} else {
		loggerClient.Info("bookmark file not configured, bookmark import disabled")
	}

	loggerClient.Debug("http access restrictions",
		logger.Strings("allowed_hosts", cfg.AllowedHosts),
		logger.Strings("allowed_cidrs", cfg.AllowedCIDRS),
		logger.Strings("cors_origins", cfg.CORSOrigins))

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
		StoreKind:     cfg.Store,
		Store:         pinger,
		Stats:         stats,
		Links:         repo,
		Reminders:     reminders,
		Alarms:        alarms,
		Alerts:        alerts,
		Dispatcher:    disp,
		Rehydration:   rehydrator.Last,
		ImportTrigger: importTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		alarms:      alarms,
		rehydrator:  rehydrator,
		importer:    importer,
		gc:          gc,
	}
}

// startReminders re-arms persisted reminders, then starts the timer loop.
// The loop never starts on top of a failed rehydration.
func (a *App) startReminders(ctx context.Context) error {
	if _, err := a.rehydrator.Run(ctx); err != nil {
		return fmt.Errorf("failed to rehydrate reminders: %w", err)
	}

	if err := a.alarms.Start(ctx); err != nil {
		return fmt.Errorf("failed to start timer service: %w", err)
	}
	a.logger.Info("timer service started",
		logger.Duration("poll_interval", a.cfg.AlarmPollInterval))
	return nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting link-reminder v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String(), logger.String("store", a.cfg.Store))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.startReminders(ctx); err != nil {
		return err
	}

	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start bookmark importer: %w", err)
		}
		a.logger.Info("bookmark importer started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start orphan collector: %w", err)
	}
	a.logger.Info("orphan collector started",
		logger.Duration("interval", a.cfg.OrphanGCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// After the server: no request can create timers anymore
	a.alarms.Stop()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ link-reminder stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
