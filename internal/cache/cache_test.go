// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, catalogKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkeyUnreachable(t *testing.T) {
	if _, err := ConnectValkey("127.0.0.1", "1", ""); err == nil {
		t.Fatal("expected error for unreachable valkey")
	}
}

type cachedCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestCatalogCacheRoundTrip(t *testing.T) {
	client := testValkeyClient(t)
	c := NewCatalogCache(client, time.Minute)
	ctx := context.Background()

	var miss []cachedCategory
	if c.Get(ctx, CategoriesKey(), &miss) {
		t.Fatal("expected miss on empty cache")
	}

	want := []cachedCategory{{ID: 1, Name: "Tools"}}
	c.Set(ctx, CategoriesKey(), want)

	var got []cachedCategory
	if !c.Get(ctx, CategoriesKey(), &got) {
		t.Fatal("expected hit after Set")
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestCatalogCacheInvalidate(t *testing.T) {
	client := testValkeyClient(t)
	c := NewCatalogCache(client, time.Minute)
	ctx := context.Background()

	id := int64(3)
	c.Set(ctx, ProductsKey(nil), []int{1})
	c.Set(ctx, ProductsKey(&id), []int{2})
	c.Set(ctx, ProductKey(9), map[string]int{"id": 9})

	c.Invalidate(ctx)

	var dst any
	for _, key := range []string{ProductsKey(nil), ProductsKey(&id), ProductKey(9)} {
		if c.Get(ctx, key, &dst) {
			t.Errorf("key %q survived Invalidate", key)
		}
	}
}

func TestKeys(t *testing.T) {
	id := int64(4)
	tests := map[string]string{
		CategoriesKey():  "categories",
		ProductsKey(nil): "products:all",
		ProductsKey(&id): "products:cat:4",
		ProductKey(12):   "product:12",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("key = %q, want %q", got, want)
		}
	}
}
