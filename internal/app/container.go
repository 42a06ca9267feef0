// Package app assembles the service: configuration, storage, the shared
// state store, services and the HTTP surface, wired through a dig
// container.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"service-fleet/internal/cache"
	"service-fleet/internal/config"
	"service-fleet/internal/http/handlers"
	mwratelimit "service-fleet/internal/http/middleware/ratelimit"
	"service-fleet/internal/http/router"
	"service-fleet/internal/kv"
	"service-fleet/internal/logx"
	"service-fleet/internal/metrics"
	"service-fleet/internal/repository"
	"service-fleet/internal/service/assignment"
	"service-fleet/internal/service/auth"
	"service-fleet/internal/service/driver"
	"service-fleet/internal/service/vehicle"
	"service-fleet/internal/transport/kafka"
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect    func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error)
	redisConnect func(context.Context, string, string, int) (*redis.Client, error)
	logFatalf    func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder.
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect:    connectDbWithRetry,
		redisConnect: kv.NewRedisClient,
		logFatalf:    log.Fatalf,
	}
}

// WithDBConnect sets the database connection function.
func (b *ContainerBuilder) WithDBConnect(
	fn func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithRedisConnect sets the shared store connection function.
func (b *ContainerBuilder) WithRedisConnect(
	fn func(context.Context, string, string, int) (*redis.Client, error),
) *ContainerBuilder {
	if fn != nil {
		b.redisConnect = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function.
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container.
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerRedis(container, b.redisConnect); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerRateLimit(container); err != nil {
		return nil, fmt.Errorf("ratelimit: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container.
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

type metricsOut struct {
	dig.Out

	RateLimitExceeded   prometheus.Counter     `name:"rate_limit_exceeded_total"`
	AssignmentConflicts prometheus.Counter     `name:"assignment_conflicts_total"`
	CacheHits           *prometheus.CounterVec `name:"cache_hits_total"`
	CacheMisses         *prometheus.CounterVec `name:"cache_misses_total"`
}

func newMetrics() metricsOut {
	rle := metrics.NewRateLimitExceededTotal()
	conflicts := metrics.NewAssignmentConflictsTotal()
	hits := metrics.NewCacheHitsTotal()
	misses := metrics.NewCacheMissesTotal()
	prometheus.MustRegister(rle, conflicts, hits, misses)
	return metricsOut{
		RateLimitExceeded:   rle,
		AssignmentConflicts: conflicts,
		CacheHits:           hits,
		CacheMisses:         misses,
	}
}

func registerCore(container *dig.Container, ctx context.Context) error {
	return provideAll(container,
		func() context.Context { return ctx },
		NewLogger,
		config.Load,
		newMetrics,
	)
}

func registerDb(
	container *dig.Container,
	dbConnect func(context.Context, string, int, time.Duration) (*pgxpool.Pool, error),
) error {
	providerDB := func(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

type cacheIn struct {
	dig.In

	Store  kv.Store
	Logger logx.Logger
	Hits   *prometheus.CounterVec `name:"cache_hits_total"`
	Misses *prometheus.CounterVec `name:"cache_misses_total"`
}

func registerRedis(
	container *dig.Container,
	redisConnect func(context.Context, string, string, int) (*redis.Client, error),
) error {
	providerClient := func(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
		return redisConnect(ctx, cfg.Redis.Addr, cfg.Redis.Pass, cfg.Redis.DB)
	}
	return provideAll(container,
		providerClient,
		func(rdb *redis.Client) kv.Store { return kv.NewRedisStore(rdb) },
		func(in cacheIn) *cache.Cache {
			return cache.New(in.Store, in.Logger, in.Hits, in.Misses)
		},
	)
}

type assignmentIn struct {
	dig.In

	Drivers   *repository.DriverRepo
	Vehicles  *repository.VehicleRepo
	Users     *repository.UserRepo
	Repo      *repository.AssignmentRepo
	Cache     *cache.Cache
	Producer  *kafka.Producer
	Cfg       *config.Config
	Logger    logx.Logger
	Conflicts prometheus.Counter `name:"assignment_conflicts_total"`
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		repository.NewDriverRepo,
		repository.NewVehicleRepo,
		repository.NewUserRepo,
		repository.NewAssignmentRepo,
		func(cfg *config.Config) (*kafka.Producer, error) {
			return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		},
		func(in assignmentIn) *assignment.Service {
			return assignment.NewService(in.Drivers, in.Vehicles, in.Users, in.Repo, in.Cache, in.Producer,
				assignment.Options{
					ListTTL:          in.Cfg.Cache.AssignmentsTTL,
					OperationTimeout: in.Cfg.OperationTimeout,
					Logger:           in.Logger,
					Conflicts:        in.Conflicts,
				})
		},
		func(repo *repository.DriverRepo, assignments *repository.AssignmentRepo, c *cache.Cache, cfg *config.Config, logger logx.Logger) *driver.Service {
			return driver.NewService(repo, assignments, c, driver.Options{
				TTL:              cfg.Cache.DriversTTL,
				OperationTimeout: cfg.OperationTimeout,
				Logger:           logger,
			})
		},
		func(repo *repository.VehicleRepo, c *cache.Cache, cfg *config.Config, logger logx.Logger) *vehicle.Service {
			return vehicle.NewService(repo, c, vehicle.Options{
				TTL:              cfg.Cache.VehiclesTTL,
				OperationTimeout: cfg.OperationTimeout,
				Logger:           logger,
			})
		},
		func(users *repository.UserRepo, cfg *config.Config, logger logx.Logger) *auth.Service {
			return auth.NewService(users, cfg.OperationTimeout, logger)
		},
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		func(logger logx.Logger, svc *auth.Service) *handlers.AuthHandler {
			return handlers.NewAuthHandler(logger, svc)
		},
		func(logger logx.Logger, base *handlers.Handlers, authH *handlers.AuthHandler, mw *mwratelimit.Middleware) http.Handler {
			return router.New(router.Deps{
				Logger:    logger,
				Base:      base,
				Auth:      authH,
				LoginGate: mw.Handler(),
			})
		},
		serverProvider,
	)
}
