// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// catalog.go caches catalog read results as JSON in Valkey. Any catalog
// write drops every entry, since a product or category change can affect
// several listings at once.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// catalogKeyPrefix is the Valkey key prefix for cached catalog reads.
	catalogKeyPrefix = "catalog:"

	// DefaultCatalogTTL bounds staleness if an invalidation is lost.
	DefaultCatalogTTL = 5 * time.Minute
)

// CatalogCache manages catalog read caching in Valkey. Errors are logged
// and treated as misses so the store stays the source of truth.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a catalog cache backed by the given Valkey client.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl == 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Get decodes the cached value for key into dst. Returns false on miss.
func (c *CatalogCache) Get(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, catalogKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("catalog cache get error", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("catalog cache decode error", "key", key, "error", err)
		return false
	}
	slog.Debug("catalog cache hit", "key", key)
	return true
}

// Set stores v under key with the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("catalog cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, catalogKeyPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("catalog cache set error", "key", key, "error", err)
	}
}

// Invalidate removes every cached catalog entry.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, catalogKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("catalog cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("catalog cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("catalog cache invalidated", "keys", deleted)
}

// CategoriesKey is the key for the category list.
func CategoriesKey() string {
	return "categories"
}

// ProductsKey is the key for a product listing, optionally filtered.
func ProductsKey(categoryID *int64) string {
	if categoryID == nil {
		return "products:all"
	}
	return fmt.Sprintf("products:cat:%d", *categoryID)
}

// ProductKey is the key for a single product.
func ProductKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}
