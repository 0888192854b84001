package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_scheduler/config"
	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/internal/store/memstore"
	"github.com/Alijeyrad/simorq_scheduler/internal/store/postgres"
	"github.com/Alijeyrad/simorq_scheduler/pkg/database"
	"github.com/Alijeyrad/simorq_scheduler/pkg/events"
	"github.com/Alijeyrad/simorq_scheduler/pkg/observability"
	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
	redispkg "github.com/Alijeyrad/simorq_scheduler/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideSessions),
	fx.Provide(ProvidePasetoManager),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideEmitter),
)

// OpenStore builds the store selected by scheduler.store. The returned close
// func is never nil.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, func() error, error) {
	switch strings.ToLower(cfg.Scheduler.Store) {
	case config.StoreMemory:
		slog.Warn("using in-memory store, data will not survive a restart")
		return memstore.New(), func() error { return nil }, nil
	case config.StorePostgres, "":
		drv, err := database.NewDriver(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database.Migrations.AutoMigrate {
			if err := postgres.Migrate(ctx, drv); err != nil {
				drv.Close()
				return nil, nil, err
			}
			slog.Info("scheduler tables migrated")
		}
		return postgres.New(drv), drv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Scheduler.Store)
	}
}

func ProvideStore(lc fx.Lifecycle, cfg *config.Config) (store.Store, error) {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	st, closeFn, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing store")
			return closeFn()
		},
	})
	return st, nil
}

// ProvideRedis returns nil when redis.addr is empty. Sessions and the shared
// rate limiter are then disabled.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb, err := redispkg.Connect(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideSessions(rdb *redis.Client, cfg *config.Config) *redispkg.Sessions {
	if rdb == nil {
		return nil
	}
	return redispkg.NewSessions(rdb, time.Duration(cfg.Authentication.SessionTTLMinutes)*time.Minute)
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

// ProvideNatsClient returns nil when nats.url is empty.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	nc, err := events.Connect(cfg.Nats.URL)
	if err != nil || nc == nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideEmitter(nc *nats.Conn) *events.Emitter {
	if nc == nil {
		return events.NewEmitter(nil)
	}
	return events.NewEmitter(nc)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.Setup(context.Background(), cfg.Observability, cfg.Server.Environment)
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
