package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "contactbook:lockout:"

// Redis is a Limiter shared by every front end replica.
type Redis struct {
	client *redis.Client
	policy Policy
}

// NewRedis connects to the Redis server at url (redis://host:port/db).
func NewRedis(url string, p Policy) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opt), policy: p.normalized()}, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, p Policy) *Redis {
	return &Redis{client: client, policy: p.normalized()}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

func failKey(key string) string { return redisKeyPrefix + "fail:" + Key(key) }
func lockKey(key string) string { return redisKeyPrefix + "lock:" + Key(key) }

// Locked implements Limiter.
func (r *Redis) Locked(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, lockKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("check lock: %w", err)
	}
	// Missing keys report a negative TTL.
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

// Fail implements Limiter.
func (r *Redis) Fail(ctx context.Context, key string) (bool, error) {
	locked, _, err := r.Locked(ctx, key)
	if err != nil {
		return false, err
	}
	if locked {
		return true, nil
	}

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, failKey(key))
	pipe.Expire(ctx, failKey(key), r.policy.Duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("count failure: %w", err)
	}
	if incr.Val() < int64(r.policy.MaxFailures) {
		return false, nil
	}

	pipe = r.client.TxPipeline()
	pipe.Set(ctx, lockKey(key), "1", r.policy.Duration)
	pipe.Del(ctx, failKey(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("set lock: %w", err)
	}
	return true, nil
}

// Reset implements Limiter.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, failKey(key), lockKey(key)).Err(); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}
