package main

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/restaurant/internal/adapter/logger"
	"github.com/YelzhanWeb/restaurant/internal/adapter/memory"
	"github.com/YelzhanWeb/restaurant/internal/adapter/metrics"
	"github.com/YelzhanWeb/restaurant/internal/adapter/postgres"
	"github.com/YelzhanWeb/restaurant/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/restaurant/internal/adapter/redis"
	"github.com/YelzhanWeb/restaurant/internal/app/notify"
	"github.com/YelzhanWeb/restaurant/internal/app/permission"
	"github.com/YelzhanWeb/restaurant/internal/config"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// infra holds the shared dependencies every subcommand builds on.
type infra struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics

	orders      interfaces.OrderRepository
	permRepo    interfaces.PermissionRepository
	reviews     interfaces.ReviewRepository
	permissions *permission.Service
	health      func(ctx context.Context) error

	closers []func()
}

func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
}

func loadInfra(ctx context.Context, service string) (*infra, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	in := &infra{
		cfg:     cfg,
		log:     logger.New(service, cfg.Log.Level),
		metrics: metrics.New(),
	}

	if err := in.openStore(ctx); err != nil {
		in.Close()
		return nil, err
	}
	if err := in.openPermissions(ctx); err != nil {
		in.Close()
		return nil, err
	}
	return in, nil
}

func (in *infra) openStore(ctx context.Context) error {
	switch storeKind {
	case "memory":
		store := memory.NewStore()
		in.orders, in.permRepo, in.reviews = store.Orders(), store.Permissions(), store.Reviews()
		// Nothing is persisted, so the default table must always be present.
		in.cfg.Permissions.SeedOnStart = true
		in.log.Warn("memory_store", "Using in-memory store; data is lost on exit", "startup", nil)
		return nil

	case "postgres":
		db, err := postgres.Connect(ctx, in.cfg.Database)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, db.Close)
		in.orders = postgres.NewOrderRepository(db)
		in.permRepo = postgres.NewPermissionRepository(db)
		in.reviews = postgres.NewReviewRepository(db)
		in.health = db.Ping

		in.log.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": in.cfg.Database.Host,
			"db":   in.cfg.Database.Database,
		})
		return nil
	}
	return fmt.Errorf("unknown store %q (want postgres or memory)", storeKind)
}

func (in *infra) openPermissions(ctx context.Context) error {
	var cache interfaces.PermissionCache = permission.NewMemoryCache(nil)

	if in.cfg.Permissions.CacheDriver == "redis" {
		rdb, err := redis.Connect(ctx, in.cfg.Redis)
		if err != nil {
			return err
		}
		in.closers = append(in.closers, func() { _ = rdb.Close() })
		cache = redis.NewPermissionCache(rdb)

		in.log.Info("redis_connected", "Connected to Redis permission cache", "startup", map[string]interface{}{
			"addr": in.cfg.Redis.Addr,
		})
	}

	in.permissions = permission.NewService(in.permRepo, cache, in.cfg.Permissions.CacheTTL, in.log, in.metrics)

	if in.cfg.Permissions.SeedOnStart {
		n, err := in.permissions.EnsureDefaults(ctx, false)
		if err != nil {
			return fmt.Errorf("failed to seed permissions: %w", err)
		}
		if n > 0 {
			in.log.Info("permissions_seeded", fmt.Sprintf("Inserted %d default permissions", n), "startup", nil)
		}
	}
	return nil
}

// startDispatcher publishes to RabbitMQ when enabled and to the log otherwise.
func (in *infra) startDispatcher() (*notify.Dispatcher, error) {
	var publisher interfaces.MessagePublisher

	if in.cfg.RabbitMQ.Enabled {
		conn, err := rabbitmq.Connect(in.cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = conn.Close() })
		publisher = rabbitmq.NewPublisher(conn)

		in.log.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": in.cfg.RabbitMQ.Host,
		})
	} else {
		publisher = notify.NewLogPublisher(in.log, in.cfg.Notifications.AdminEmail)
	}

	n := in.cfg.Notifications
	d := notify.NewDispatcher(publisher, n.Workers, n.QueueSize, in.log, in.metrics)
	d.Start()
	// Drain before the broker connection closes.
	in.closers = append(in.closers, d.Stop)
	return d, nil
}
