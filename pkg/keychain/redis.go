package keychain

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "keychain:"

// RedisConfig describes the connection to a Redis database shared by both
// applications.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"keychain:"`
}

// ConnectRedis opens a client and waits until the server answers PING,
// trying up to RetryAttempts times.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisURL, err)
	}

	for range max(cfg.RetryAttempts, 1) {
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// RedisBackend stores items as plain Redis strings without expiration.
type RedisBackend struct {
	db     redis.UniversalClient
	prefix string
}

// NewRedisBackend wraps client. An empty prefix falls back to "keychain:".
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisBackend{db: client, prefix: prefix}
}

func (r *RedisBackend) Get(ctx context.Context, item Item) ([]byte, error) {
	value, err := r.db.Get(ctx, r.key(item)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return value, err
}

func (r *RedisBackend) Put(ctx context.Context, item Item, value []byte) error {
	return r.db.Set(ctx, r.key(item), value, 0).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, item Item) error {
	return r.db.Del(ctx, r.key(item)).Err()
}

func (r *RedisBackend) Create(ctx context.Context, item Item, value []byte) (bool, error) {
	return r.db.SetNX(ctx, r.key(item), value, 0).Result()
}

// Healthcheck returns a check that pings the backing Redis server.
func (r *RedisBackend) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		return r.db.Ping(ctx).Err()
	}
}

func (r *RedisBackend) key(item Item) string {
	return r.prefix + item.ID()
}
