package cache

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

func TestNewRedisCacheInvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "http://localhost:6379")
	if err == nil {
		t.Fatal("NewRedisCache() with a non-redis scheme should fail")
	}
}

// TestRedisCache runs against a live server when OGDRASTER_TEST_REDIS_URL is set.
func TestRedisCache(t *testing.T) {
	url := os.Getenv("OGDRASTER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("OGDRASTER_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache() error: %v", err)
	}
	defer c.Close()

	key := NewScopedKeyer(nil, "test:"+t.Name()+":").AssetKey("u")
	defer c.Delete(ctx, key)

	if _, hit, err := c.Get(ctx, key); hit || err != nil {
		t.Fatalf("Get() = %v, %v; want miss", hit, err)
	}
	if err := c.Set(ctx, key, []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || !bytes.Equal(data, []byte("value")) {
		t.Fatalf("Get() = %q, %v, %v; want value hit", data, hit, err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get() after Delete should miss")
	}
}
