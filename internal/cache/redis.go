package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/lineagehub/graphd/internal/graph"
)

// RedisCache implements graph.Cache against a Redis instance, following
// the same New(ctx, url)-then-Ping constructor idiom as
// internal/graphstore/postgres.New.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at addr.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		// Fall back to treating addr as a bare host:port.
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Msg("cache connected")
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) GetNode(ctx context.Context, org, id string) (*graph.Node, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(org, id)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var n graph.Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	return &n, true, nil
}

func (c *RedisCache) SetNode(ctx context.Context, n *graph.Node) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, cacheKey(n.OrgID, n.ID), raw, 0).Err()
}

func (c *RedisCache) DeleteNode(ctx context.Context, org, id string) error {
	return c.client.Del(ctx, cacheKey(org, id)).Err()
}

func (c *RedisCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

var _ graph.Cache = (*RedisCache)(nil)
