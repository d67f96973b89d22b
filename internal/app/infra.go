package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/clinic_ledger/config"
	"github.com/Alijeyrad/clinic_ledger/internal/api/http/router"
	"github.com/Alijeyrad/clinic_ledger/internal/service/stats"
	"github.com/Alijeyrad/clinic_ledger/internal/store"
	"github.com/Alijeyrad/clinic_ledger/pkg/database"
	"github.com/Alijeyrad/clinic_ledger/pkg/email"
	"github.com/Alijeyrad/clinic_ledger/pkg/events"
	"github.com/Alijeyrad/clinic_ledger/pkg/observability"
	redispkg "github.com/Alijeyrad/clinic_ledger/pkg/redis"
	"github.com/Alijeyrad/clinic_ledger/pkg/token"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvidePool),
	fx.Provide(ProvideStore),
	fx.Provide(ProvidePinger),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideTokenManager),
)

func ProvidePool(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout(cfg))
	defer cancel()

	pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrations.AutoMigrate {
		n, err := database.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("database migrated", "applied", n)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing database pool")
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

func ProvideStore(pool *pgxpool.Pool) store.Store {
	return store.NewPostgres(pool)
}

func ProvidePinger(st store.Store) router.Pinger {
	return st
}

// ProvideRedis returns a nil client when no address is configured. Sessions,
// rate limiting and the stats cache are then disabled.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		slog.Warn("redis not configured")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout(cfg))
	defer cancel()

	rdb, err := redispkg.NewRedisFromCentral(ctx, cfg.Redis)
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

// ProvideNatsClient returns a nil connection when no URL is configured.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Warn("nats not configured, ledger events are dropped")
		return nil, nil
	}

	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(cfg.Observability.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
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

type publisherParams struct {
	fx.In

	NC       *nats.Conn `optional:"true"`
	StatsSvc stats.Service
}

// ProvidePublisher returns the NATS publisher, or an in-process stats
// invalidator when NATS is not configured.
func ProvidePublisher(p publisherParams) events.Publisher {
	if p.NC == nil {
		return statsInvalidatingPublisher{svc: p.StatsSvc}
	}
	return events.NewNATSPublisher(p.NC)
}

func ProvideEmailClient(cfg *config.Config) *email.Client {
	return email.NewFromCentral(cfg.Email)
}

func ProvideTokenManager(cfg *config.Config) (*token.Manager, error) {
	return token.NewFromConfig(cfg)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
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

func startupTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.Server.TimeoutSeconds) * time.Second
}
