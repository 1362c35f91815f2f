package zoom

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/satriahrh/parlez/domain/repositories"
)

// RedisConfig holds configuration for the Redis-backed flag
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	// TTL bounds how long an unread signal survives; zero keeps it until polled
	TTL time.Duration
}

// Redis shares the latched flag between server instances
type Redis struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

var _ repositories.ZoomSignal = (*Redis)(nil)

// NewRedis connects to Redis and verifies the connection
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Key == "" {
		cfg.Key = "avatar:zoom"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{rdb: rdb, key: cfg.Key, ttl: cfg.TTL}, nil
}

// Set latches the flag
func (r *Redis) Set(ctx context.Context) error {
	if err := r.rdb.Set(ctx, r.key, "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("set zoom flag: %w", err)
	}
	return nil
}

// PollAndReset reads and deletes the flag in one GETDEL round trip
func (r *Redis) PollAndReset(ctx context.Context) (bool, error) {
	_, err := r.rdb.GetDel(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("poll zoom flag: %w", err)
	}
	return true, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.rdb.Close()
}
