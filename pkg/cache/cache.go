// Package cache provides byte-level caching for downloaded forecast assets
// and rendered images.
//
// Three implementations of [Cache] are provided:
//   - [FileCache]: entries stored as files under a directory (CLI default)
//   - [RedisCache]: entries stored in Redis (shared by `ogdraster serve` replicas)
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys are built by a [Keyer] so that the same logical object maps to the
// same key regardless of which process produced it. [Observe] wraps any
// Cache and reports hits, misses and writes to the observability hooks.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/ogdraster/pkg/observability"
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss as (nil, false, nil). Expired entries are misses.
// A ttl of 0 passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Observe wraps c so that every Get and Set is reported to
// observability.Cache(). The key type reported is the key's leading
// "kind:" segment (e.g. "asset").
func Observe(c Cache) Cache {
	if _, ok := c.(*observed); ok {
		return c
	}
	return &observed{Cache: c}
}

type observed struct {
	Cache
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := o.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, ok, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}

// KeyType returns the kind segment of a key built by a Keyer, ignoring any
// scope prefix. Keys without a known kind yield "other".
func KeyType(key string) string {
	for _, kind := range []string{KindSearch, KindAsset, KindRender} {
		if strings.HasPrefix(key, kind+":") || strings.Contains(key, ":"+kind+":") {
			return kind
		}
	}
	return "other"
}
