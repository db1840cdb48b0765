package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	CompanionStateTTL = 7 * 24 * time.Hour
	RecentMemoriesTTL = 24 * time.Hour
)

type Cache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(url string, prefix string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{
		client: client,
		prefix: prefix,
	}, nil
}

// IsMiss reports whether err means the key was absent.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func (c *Cache) Key(parts ...string) string {
	if c.prefix == "" {
		return strings.Join(parts, ":")
	}
	return c.prefix + ":" + strings.Join(parts, ":")
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// PushCapped prepends value to the list at key, keeping at most capacity
// entries and refreshing the TTL, in one round trip.
func (c *Cache) PushCapped(ctx context.Context, key, value string, capacity int64, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, value)
		pipe.LTrim(ctx, key, 0, capacity-1)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// RefillList rebuilds the list at key from load, first element at the head.
// The key is watched while load runs; if a concurrent write touches it the
// refill is dropped and the key deleted, so a fresher push is never overwritten.
// Errors from load are returned unchanged and leave the key alone.
func (c *Cache) RefillList(ctx context.Context, key string, ttl time.Duration, load func() ([]string, error)) error {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		values, err := load()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(values) == 0 {
				return nil
			}
			args := make([]interface{}, len(values))
			for i, v := range values {
				args[i] = v
			}
			pipe.RPush(ctx, key, args...)
			pipe.Expire(ctx, key, ttl)
			return nil
		})
		return err
	}, key)

	if IsConflict(err) {
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil {
			return fmt.Errorf("failed to drop raced list: %w", delErr)
		}
	}
	return err
}

// IsConflict reports whether err means a watched key changed mid-transaction.
func IsConflict(err error) bool {
	return errors.Is(err, redis.TxFailedErr)
}

// Head returns up to n entries from the front of the list at key.
func (c *Cache) Head(ctx context.Context, key string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return c.client.LRange(ctx, key, 0, n-1).Result()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
