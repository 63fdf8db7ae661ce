package redis

import (
	"context"
	"testing"
	"time"

	"github.com/wonny/risklens/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on disabled client = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	limit := WriteLimit("u-1", 30)

	allowed, remaining, err := limiter.Allow(context.Background(), limit)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != 30 {
		t.Errorf("Expected remaining = 30, got %d", remaining)
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
	if err := cache.Set(ctx, "key", "value", time.Minute); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := cache.Bump(ctx, time.Minute, "key"); err != nil {
		t.Errorf("Bump() error = %v", err)
	}
	gen, err := cache.Generation(ctx, "key")
	if err != nil {
		t.Fatalf("Generation() error = %v", err)
	}
	if gen != 0 {
		t.Errorf("Expected generation 0 when Redis disabled, got %d", gen)
	}
}

func TestGetOrSet_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")

	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	for i := 0; i < 2; i++ {
		got, err := GetOrSet(context.Background(), cache, "list", TTLShort, load)
		if err != nil {
			t.Fatalf("GetOrSet() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2 items, got %v", got)
		}
	}
	if calls != 2 {
		t.Errorf("Expected loader to run on every miss, ran %d times", calls)
	}
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"HoldingsKey", HoldingsKey("u-1"), "portfolio:u-1:holdings"},
		{"HistoryKey", HistoryKey("u-1"), "portfolio:u-1:history"},
		{"VersionedKey", VersionedKey(HoldingsKey("u-1"), 3), "portfolio:u-1:holdings:v3"},
		{"WriteLimit", WriteLimit("u-1", 5).Key, "writes:u-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}
