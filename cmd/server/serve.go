package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ecodrive-backend/cache"
	"ecodrive-backend/database"
	"ecodrive-backend/metrics"
	"ecodrive-backend/mq"
	"ecodrive-backend/poll"
	"ecodrive-backend/repository"
	"ecodrive-backend/routes"
	"ecodrive-backend/service"
	"ecodrive-backend/websocket"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, live tallies and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}
}

// redisBacked holds the components that use Redis when it is reachable and
// an in-process fallback otherwise
type redisBacked struct {
	client  *redis.Client
	locker  cache.Locker
	limiter cache.RateLimiter
	broker  mq.Broker
	mode    string
}

func connectRedis(ctx context.Context, logger *slog.Logger) redisBacked {
	limit := cfg.RateLimit
	local := cache.NewLocalRateLimiter(limit.Requests, limit.Window)

	client, err := cache.Connect(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, using in-process locks, rate limits and events", "error", err)
		return redisBacked{
			locker:  cache.NewLocalLocker(),
			limiter: local,
			broker:  mq.NewLocalBroker(256, logger),
			mode:    "local",
		}
	}
	return redisBacked{
		client: client,
		locker: cache.NewDistributedLockService(client),
		limiter: cache.FallbackRateLimiter{
			Primary:   cache.NewTokenBucketRateLimiter(client, "ratelimit", limit.Requests, limit.Window),
			Secondary: local,
		},
		broker: mq.NewRedisBroker(client, mq.DefaultChannel, logger),
		mode:   "redis",
	}
}

func serveRun(parent context.Context) error {
	logger := newLogger(cfg.Log)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.IsDevelopment() && cfg.Database.Seed {
		if err := database.Seed(db, time.Now(), logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	rb := connectRedis(ctx, logger)
	if rb.client != nil {
		defer func() { _ = rb.client.Close() }()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	locationStore := repository.NewLocationStore(db)
	locations := service.NewLocationService(locationStore, repository.NewDriveStore(db), nil)
	polls := service.NewPollService(service.PollServiceConfig{
		Polls:     repository.NewPollStore(db),
		Users:     repository.NewUserStore(db),
		Locations: locationStore,
		Ranker:    locations,
		Locker:    rb.locker,
		Broker:    rb.broker,
		Metrics:   m,
		Logger:    logger,
	})
	alerts := service.NewAlertService(locations, locationStore, rb.broker, m, logger, cfg.Scheduler.AlertLimit, nil)

	hub := websocket.NewHub(logger)
	rb.broker.Subscribe(hub.HandleEvent)
	live := websocket.NewHandler(hub, func(ctx context.Context, id uint) error {
		if err := polls.Exists(ctx, id); errors.Is(err, poll.ErrNotFound) {
			return websocket.ErrPollNotFound
		} else if err != nil {
			return err
		}
		return nil
	}, nil, logger)

	router := routes.SetupRouter(routes.Dependencies{
		Config:    cfg,
		DB:        db,
		Polls:     polls,
		Locations: locations,
		Live:      live,
		Limiter:   rb.limiter,
		Metrics:   m,
		Gatherer:  registry,
		RedisMode: rb.mode,
		Logger:    logger,
	})

	scheduler := routes.NewScheduler(logger,
		routes.Job{Name: "close-expired-polls", Interval: cfg.Scheduler.SweepInterval, Run: polls.CloseExpired},
		routes.Job{Name: "area-alerts", Interval: cfg.Scheduler.AlertInterval, Run: alerts.Run},
	)

	var wg sync.WaitGroup
	background := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
			logger.Debug("background task stopped", "task", name)
		}()
	}
	background("hub", func() { hub.Run(ctx) })
	background("broker", func() {
		if err := rb.broker.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("event broker stopped", "error", err)
		}
	})
	background("scheduler", func() { scheduler.Start(ctx) })

	err = routes.NewServer(cfg.Server, router, logger).Run(ctx, cfg.Server.ShutdownTimeout)
	stop()
	wg.Wait()
	logger.Info("server exited")
	return err
}
