package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/ogdraster/pkg/cache"
	"github.com/matzehuels/ogdraster/pkg/httputil"
)

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	assets, err := cache.NewFileCache(filepath.Join(dir, assetsDir))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"asset:a", "asset:b", "render:c"} {
		if err := assets.Set(ctx, key, []byte("data"), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	search, err := httputil.NewCache(filepath.Join(dir, httpDir), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := search.Set("search:x", map[string]int{"n": 1}); err != nil {
		t.Fatal(err)
	}

	n, err := clearCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("cleared %d entries, want 4", n)
	}

	if _, hit, _ := assets.Get(ctx, "asset:a"); hit {
		t.Error("asset entry survived clear")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left in cache dir", len(entries))
	}
}

func TestCacheClearCommand(t *testing.T) {
	base := isolate(t)
	dir := filepath.Join(base, "cache", appName)
	fc, err := cache.NewFileCache(filepath.Join(dir, assetsDir))
	if err != nil {
		t.Fatal(err)
	}
	if err := fc.Set(context.Background(), "asset:a", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := fc.Get(context.Background(), "asset:a"); hit {
		t.Error("entry survived cache clear")
	}
}

func TestNewCacheSelection(t *testing.T) {
	isolate(t)
	c := New(os.Stderr, LogInfo)

	got, err := c.newCache(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(cache.NullCache); !ok {
		t.Errorf("--no-cache cache = %T, want cache.NullCache", got)
	}

	got, err = c.newCache(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if err := got.Set(context.Background(), "asset:x", []byte("x"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := got.Get(context.Background(), "asset:x"); !hit {
		t.Error("file cache did not store the entry")
	}

	c.config = &Config{CacheURL: "redis://127.0.0.1:1/0"}
	if _, err := c.newCache(context.Background(), false); err == nil {
		t.Error("unreachable redis should fail")
	}
}
