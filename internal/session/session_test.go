package session

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client connected to the test Valkey.
// Skips the test if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests to isolate from dev data.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, keyPrefix+"*").Result()
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

func TestSessionLifecycle(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, time.Minute)
	ctx := context.Background()

	token, err := store.Create(ctx, &Data{Subject: "admin", RemoteIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(token) != idLength*2 {
		t.Errorf("token length = %d, want %d", len(token), idLength*2)
	}

	data, err := store.Get(ctx, token)
	if err != nil || data == nil {
		t.Fatalf("Get = %v, %v", data, err)
	}
	if data.Subject != "admin" || data.CreatedAt.IsZero() {
		t.Errorf("Get = %+v", data)
	}

	ttl, err := client.TTL(ctx, keyPrefix+token).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, %v", ttl, err)
	}

	if err := store.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if data, _ := store.Get(ctx, token); data != nil {
		t.Error("session survived Destroy")
	}
}

func TestSessionUnknownToken(t *testing.T) {
	client := testValkeyClient(t)
	store := NewStore(client, 0)

	data, err := store.Get(context.Background(), "does-not-exist")
	if err != nil || data != nil {
		t.Errorf("Get = %v, %v; want nil, nil", data, err)
	}
	if store.TTL() != DefaultTTL {
		t.Errorf("TTL = %v, want default", store.TTL())
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if got := TokenFromRequest(r); got != tt.want {
				t.Errorf("TokenFromRequest(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestGenerateIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := generateID()
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
