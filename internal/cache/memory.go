// Package cache implements the Cache (KV) port: a read-through cache of
// individual nodes keyed by org+id. MemoryCache is the zero-configuration fallback used when
// REDIS_URL is unset; Redis is the production binding (see redis.go).
package cache

import (
	"context"
	"sync"

	"github.com/lineagehub/graphd/internal/graph"
)

// MemoryCache is a process-local, mutex-guarded map implementation of
// graph.Cache.
type MemoryCache struct {
	mu  sync.RWMutex
	nodes map[string]*graph.Node
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{nodes: make(map[string]*graph.Node)}
}

func cacheKey(org, id string) string { return "node:" + org + ":" + id }

func (c *MemoryCache) GetNode(ctx context.Context, org, id string) (*graph.Node, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.nodes[cacheKey(org, id)]
	if !ok {
		return nil, false, nil
	}
	cp := *n
	return &cp, true, nil
}

func (c *MemoryCache) SetNode(ctx context.Context, n *graph.Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *n
	c.nodes[cacheKey(n.OrgID, n.ID)] = &cp
	return nil
}

func (c *MemoryCache) DeleteNode(ctx context.Context, org, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nodes, cacheKey(org, id))
	return nil
}

// HealthCheck always succeeds: there is no external dependency to probe.
func (c *MemoryCache) HealthCheck(ctx context.Context) error { return nil }

var _ graph.Cache = (*MemoryCache)(nil)
