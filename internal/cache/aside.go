package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	channelKeyPrefix     = "channel:%d"
	channelListKeyPrefix = "channels:list:%d:%d"
	channelListPattern   = "channels:list:*"
)

const (
	ChannelTTL     = 10 * time.Minute
	ChannelListTTL = 2 * time.Minute
)

func ChannelKey(id uint) string {
	return fmt.Sprintf(channelKeyPrefix, id)
}

func ChannelListKey(limit, offset int) string {
	return fmt.Sprintf(channelListKeyPrefix, limit, offset)
}

// Cache is a JSON cache-aside layer. A nil client disables caching.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Aside reads key into dest, or calls fetch to fill dest and stores it for ttl.
// Redis failures fall through to fetch.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if c == nil || c.rdb == nil {
		return fetch()
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil && json.Unmarshal(raw, dest) == nil {
		return nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		// cache outage: serve from the source
		return fetch()
	}

	if err := fetch(); err != nil {
		return err
	}
	if b, err := json.Marshal(dest); err == nil {
		_ = c.rdb.Set(ctx, key, b, ttl).Err()
	}
	return nil
}

// Invalidate drops keys. Best effort.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.rdb == nil || len(keys) == 0 {
		return
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}

// InvalidateChannel drops the channel entry and every cached listing page.
func (c *Cache) InvalidateChannel(ctx context.Context, id uint) {
	if c == nil || c.rdb == nil {
		return
	}
	keys := []string{ChannelKey(id)}
	iter := c.rdb.Scan(ctx, 0, channelListPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	c.Invalidate(ctx, keys...)
}
