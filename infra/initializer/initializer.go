package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/marketledger/infra"
	infracache "github.com/amirasaad/marketledger/infra/cache"
	infraeventbus "github.com/amirasaad/marketledger/infra/eventbus"
	infraprovider "github.com/amirasaad/marketledger/infra/provider"
	infrarepo "github.com/amirasaad/marketledger/infra/repository"
	"github.com/amirasaad/marketledger/pkg/cache"
	"github.com/amirasaad/marketledger/pkg/config"
	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	"github.com/amirasaad/marketledger/pkg/provider"
	"github.com/redis/go-redis/v9"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (deps *Deps, err error) {
	deps = &Deps{Config: cfg}
	logger := SetupLogger(cfg.Log)
	deps.Logger = logger
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	deps.DB = db
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		deps.onClose(sqlDB)
	}
	if cfg.DB.AutoMigrate {
		if err = infra.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = infrarepo.NewFundRepository(db).Ensure(ctx, cfg.Ledger.InitialFundCapital); err != nil {
		return nil, fmt.Errorf("failed to ensure fund row: %w", err)
	}

	// Initialize unit of work
	deps.Uow = infrarepo.NewUoW(db)

	if needsRedis(cfg) {
		deps.Redis, err = newRedisClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		deps.onClose(deps.Redis)
	}

	deps.BalanceCache = initBalanceCache(cfg, deps.Redis, logger)

	bus, err := initEventBus(cfg, deps.Redis, logger)
	if err != nil {
		return nil, err
	}
	deps.EventBus = bus
	if c, ok := bus.(interface{ Close() error }); ok {
		deps.onClose(closerFunc(c.Close))
	}

	deps.Classifier, err = initClassifier(cfg.Classifier, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Dependencies initialized",
		"eventBus", cfg.EventBus.Driver,
		"cache", cfg.Cache.Driver,
		"classifier", deps.Classifier.Name(),
	)
	return deps, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func needsRedis(cfg *config.App) bool {
	return (cfg.EventBus != nil && cfg.EventBus.Driver == "redis") ||
		(cfg.Cache != nil && cfg.Cache.Driver == "redis")
}

func newRedisClient(cfg *config.Redis) (*redis.Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	return redis.NewClient(opts), nil
}

func initBalanceCache(cfg *config.App, client *redis.Client, logger *slog.Logger) cache.BalanceCache {
	if cfg.Cache != nil && cfg.Cache.Driver == "redis" && client != nil {
		return infracache.NewRedisBalanceCache(client, cfg.Redis.KeyPrefix, logger)
	}
	return infracache.NewMemoryCache()
}

// initEventBus builds the configured bus. A driver that is configured but
// unreachable falls back to the in-memory bus; a driver with missing
// settings is an error.
func initEventBus(cfg *config.App, client *redis.Client, logger *slog.Logger) (eventbus.Bus, error) {
	driver := "memory"
	if cfg.EventBus != nil && cfg.EventBus.Driver != "" {
		driver = cfg.EventBus.Driver
	}
	factories := events.Factories()

	switch driver {
	case "memory":
		return infraeventbus.NewWithMemory(logger), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis event bus requires REDIS_URL")
		}
		bus, err := infraeventbus.NewWithRedis(client, cfg.EventBus.Stream, cfg.EventBus.Group, factories, logger)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemory(logger), nil
		}
		return bus, nil
	case "kafka":
		if cfg.EventBus.KafkaBroker == "" {
			return nil, fmt.Errorf("kafka event bus requires EVENT_BUS_KAFKA_BROKER")
		}
		bus, err := infraeventbus.NewWithKafka(cfg.EventBus.KafkaBroker, cfg.EventBus.Group, cfg.EventBus.Stream, factories, logger)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemory(logger), nil
		}
		return bus, nil
	case "rabbitmq":
		if cfg.EventBus.AmqpURL == "" {
			return nil, fmt.Errorf("rabbitmq event bus requires EVENT_BUS_AMQP_URL")
		}
		bus, err := infraeventbus.NewWithRabbitMQ(cfg.EventBus.AmqpURL, cfg.EventBus.Stream, cfg.EventBus.Group, factories, logger)
		if err != nil {
			logger.Warn("RabbitMQ event bus unavailable, falling back to memory", "error", err)
			return infraeventbus.NewWithMemory(logger), nil
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unknown event bus driver %q", driver)
	}
}

func initClassifier(cfg *config.Classifier, logger *slog.Logger) (provider.SentimentClassifier, error) {
	if cfg == nil {
		return infraprovider.NewStaticSentimentClassifier("Neutral"), nil
	}
	switch cfg.Provider {
	case "", "static":
		return infraprovider.NewStaticSentimentClassifier(cfg.StaticLabel), nil
	case "llm":
		if cfg.ApiKey == "" {
			return nil, fmt.Errorf("llm classifier requires CLASSIFIER_API_KEY")
		}
		return infraprovider.NewLLMSentimentClassifier(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
