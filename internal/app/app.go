// Package app assembles the NutriLog service graph shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nutrilog/nutrilog/internal/clock"
	"github.com/nutrilog/nutrilog/internal/config"
	"github.com/nutrilog/nutrilog/internal/dailylog"
	"github.com/nutrilog/nutrilog/internal/database"
	"github.com/nutrilog/nutrilog/internal/featureflags"
	"github.com/nutrilog/nutrilog/internal/food"
	"github.com/nutrilog/nutrilog/internal/food/usda"
	"github.com/nutrilog/nutrilog/internal/lock"
	"github.com/nutrilog/nutrilog/internal/provider/resilience"
	"github.com/nutrilog/nutrilog/internal/suggestion"
	"github.com/nutrilog/nutrilog/internal/user"
	"github.com/nutrilog/nutrilog/migrations"
)

// Check is a named dependency probe.
type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// Services holds the assembled domain services and their infrastructure.
type Services struct {
	Clock     clock.Clock
	Users     *user.Service
	Foods     *food.Service
	Logs      *dailylog.Service
	Flags     *featureflags.Service
	Providers *resilience.Registry

	// Checks probe the storage and lock backends in use.
	Checks []Check

	pool  *pgxpool.Pool
	redis *redis.Client
}

// Options tunes Build.
type Options struct {
	// Recorder receives external provider request metrics.
	Recorder resilience.Recorder
	// Migrate applies the embedded schema on startup (postgres backend only).
	Migrate bool
}

// Build wires repositories, locks, the USDA lookup and the domain services
// according to cfg. Close releases what Build opened.
func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts Options) (*Services, error) {
	c, err := clock.NewSystemFromName(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	s := &Services{Clock: c, Providers: resilience.NewRegistry()}

	var (
		userRepo user.Repository
		foodRepo food.Repository
		logRepo  dailylog.Repository
		flagRepo featureflags.Repository
	)

	switch cfg.StorageBackend {
	case config.StoragePostgres:
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.pool = pool
		logger.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")

		if opts.Migrate {
			if err := database.Migrate(ctx, pool, migrations.FS, logger); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}

		userRepo = user.NewPostgresRepository(pool)
		foodRepo = food.NewPostgresRepository(pool)
		logRepo = dailylog.NewPostgresRepository(pool)
		flagRepo = featureflags.NewPostgresRepository(pool)
		s.Checks = append(s.Checks, Check{Name: "postgres", Check: pool.Ping})
	default:
		logger.Warn().Msg("using in-memory storage, data is lost on restart")
		userRepo = user.NewInMemoryRepository()
		foodRepo = food.NewInMemoryRepository()
		logRepo = dailylog.NewInMemoryRepository()
		flagRepo = featureflags.NewInMemoryRepository()
	}

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		client, err := lock.NewRedisClient(ctx, lock.ClientConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = client

		redisCfg := lock.DefaultRedisConfig()
		redisCfg.Logger = logger
		locker = lock.NewRedisLocker(client, redisCfg)
		s.Checks = append(s.Checks, Check{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis log lock")
	}

	s.Flags = featureflags.NewService(featureflags.ServiceConfig{
		Repository: flagRepo,
		Logger:     logger,
		CacheTTL:   1 * time.Minute,
	})

	var lookup food.Lookup
	if cfg.USDAAPIKey != "" {
		lookup = usda.NewClient(usda.ClientConfig{
			APIKey:   cfg.USDAAPIKey,
			BaseURL:  cfg.USDABaseURL,
			Registry: s.Providers,
			Recorder: opts.Recorder,
		})
		logger.Info().Msg("usda food lookup enabled")
	} else {
		logger.Warn().Msg("USDA_API_KEY not set, external food lookup disabled")
	}

	s.Foods = food.NewService(food.ServiceConfig{
		Repository: foodRepo,
		Lookup:     lookup,
		Gate:       s.Flags,
		Logger:     logger,
	})

	s.Users = user.NewService(user.ServiceConfig{
		Repository: userRepo,
		Clock:      c,
		Logger:     logger,
		Purgers:    []user.Purger{logRepo, foodRepo},
	})

	s.Logs = dailylog.NewService(dailylog.ServiceConfig{
		Repository: logRepo,
		Foods:      s.Foods,
		Users:      s.Users,
		Advisor:    suggestion.NewEngine(c),
		Gate:       s.Flags,
		Locker:     locker,
		Clock:      c,
		Logger:     logger,
	})

	if cfg.StorageBackend == config.StorageMemory {
		n, err := s.Foods.Seed(ctx, food.DefaultCatalog())
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info().Int("foods", n).Msg("seeded in-memory catalog")
	}

	return s, nil
}

// Close releases the database pool and Redis client, if any.
func (s *Services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
