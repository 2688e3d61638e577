package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), searchTTL)
}

func NewRedisCacheWithClient(client *redis.Client, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL}
}

// GetSearch returns the raw flights cached for query, or nil on a miss.
func (c *RedisCache) GetSearch(ctx context.Context, query string) ([]domain.Flight, error) {
	key, err := c.searchKey(ctx, query)
	if err != nil {
		return nil, err
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetSearch(ctx context.Context, query string, flights []domain.Flight) error {
	key, err := c.searchKey(ctx, query)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.searchTTL).Err()
}

// InvalidateSearches bumps the search generation so every cached result is
// bypassed; stale entries age out on their TTL.
func (c *RedisCache) InvalidateSearches(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey()).Err()
}

func (c *RedisCache) AcquireQueueLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, queueLockKey(), owner, ttl).Result()
}

// releaseLockSrc deletes the lock only while the caller still owns it.
const releaseLockSrc = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

var releaseLockScript = redis.NewScript(releaseLockSrc)

func (c *RedisCache) ReleaseQueueLock(ctx context.Context, owner string) error {
	err := releaseLockScript.Run(ctx, c.client, []string{queueLockKey()}, owner).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) searchKey(ctx context.Context, query string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("cache:search:%d:%s", gen, query), nil
}

func generationKey() string {
	return "cache:search:generation"
}

func queueLockKey() string {
	return "lock:ticket-queue"
}
