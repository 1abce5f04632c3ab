package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only while it still carries our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClient is the subset of the go-redis client the lock needs.
type RedisClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisConfig configures a RedisLocker.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL bounds how long a crashed holder blocks the key.
	TTL time.Duration
	// MaxWait bounds how long Lock retries before giving up.
	MaxWait time.Duration
	Logger  zerolog.Logger
}

// DefaultRedisConfig returns defaults sized for request-scoped mutations.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:  "nutrilog:lock:",
		TTL:     10 * time.Second,
		MaxWait: 5 * time.Second,
	}
}

// RedisLocker is a Locker shared by every process using the same Redis.
type RedisLocker struct {
	client RedisClient
	cfg    RedisConfig
}

// NewRedisLocker creates a Redis-backed Locker.
func NewRedisLocker(client RedisClient, cfg RedisConfig) *RedisLocker {
	defaults := DefaultRedisConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaults.MaxWait
	}
	return &RedisLocker{client: client, cfg: cfg}
}

// Lock acquires key with SET NX PX, retrying with exponential backoff.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.cfg.Prefix + key
	token := uuid.New().String()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = l.cfg.MaxWait

	attempt := func() error {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return ErrNotAcquired
		}
		return nil
	}

	if err := backoff.Retry(attempt, backoff.WithContext(bo, ctx)); err != nil {
		if errors.Is(err, ErrNotAcquired) {
			return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
		}
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.cfg.Logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
			}
		})
	}, nil
}

var _ Locker = (*RedisLocker)(nil)

// ClientConfig holds Redis connection settings.
type ClientConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg ClientConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
