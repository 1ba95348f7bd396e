package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/ogdraster/pkg/observability"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "asset:a"); hit || err != nil {
		t.Fatalf("Get() on empty cache = %v, %v; want miss", hit, err)
	}

	payload := []byte{0x00, 0xff, 'g', 'r', 'i', 'b'}
	if err := c.Set(ctx, "asset:a", payload, time.Hour); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	data, hit, err := c.Get(ctx, "asset:a")
	if err != nil || !hit {
		t.Fatalf("Get() = %v, %v; want hit", hit, err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Get() = %v, want %v", data, payload)
	}

	if err := c.Delete(ctx, "asset:a"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "asset:a"); hit {
		t.Error("Get() after Delete should miss")
	}
	if err := c.Delete(ctx, "asset:a"); err != nil {
		t.Errorf("Delete() of missing key error: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry with ttl 0 should not expire")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, hit, err := c.Get(ctx, "k")
	if hit || err != nil {
		t.Errorf("Get() of corrupt entry = %v, %v; want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get() after Clear should miss")
	}
	entries, _ := os.ReadDir(c.Dir())
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after Clear, want 0", len(entries))
	}
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join("ogdraster", "assets")) {
		t.Errorf("DefaultDir() = %q, want suffix ogdraster/assets", dir)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := SearchKeyOpts{Collection: "ch.meteoschweiz.ogd-forecasting-icon-ch1", Variable: "T_2M", RefTime: "latest", Horizon: "P0DT0H"}
	other := base
	other.Perturbed = true

	s1, s2 := k.SearchKey(base), k.SearchKey(other)
	if s1 == s2 {
		t.Error("different SearchKeyOpts should produce different keys")
	}
	if s1 != k.SearchKey(base) {
		t.Error("SearchKey should be deterministic")
	}
	if !strings.HasPrefix(s1, "search:") {
		t.Errorf("SearchKey = %q, want search: prefix", s1)
	}

	a := k.AssetKey("https://data.example/t2m.json")
	if !strings.HasPrefix(a, "asset:") {
		t.Errorf("AssetKey = %q, want asset: prefix", a)
	}

	r1 := k.RenderKey(a, RenderKeyOpts{Mode: "alpha", Format: "png", Scale: 1})
	r2 := k.RenderKey(a, RenderKeyOpts{Mode: "opaque", Format: "png", Scale: 1})
	if r1 == r2 {
		t.Error("different RenderKeyOpts should produce different keys")
	}
	if r1 == hashKey(KindRender, a, RenderKeyOpts{Mode: "alpha", Format: "png", Scale: 1}) {
		t.Error("RenderKey should include the renderer version")
	}
}

func TestHashKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"same parts", hashKey(KindAsset, "u"), hashKey(KindAsset, "u"), true},
		{"different kind", hashKey(KindAsset, "u"), hashKey(KindSearch, "u"), false},
		{"different parts", hashKey(KindAsset, "u"), hashKey(KindAsset, "v"), false},
		{"part boundaries", hashKey(KindAsset, "ab", "c"), hashKey(KindAsset, "a", "bc"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (tt.a == tt.b) != tt.same {
				t.Errorf("keys %q and %q: equal = %v, want %v", tt.a, tt.b, tt.a == tt.b, tt.same)
			}
		})
	}
	if got := hashKey(KindRender, 1); !strings.HasPrefix(got, "render:") || len(got) != len("render:")+64 {
		t.Errorf("hashKey() = %q, want render:<sha256>", got)
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	key := scoped.AssetKey("https://data.example/a.json")
	if want := "staging:" + NewDefaultKeyer().AssetKey("https://data.example/a.json"); key != want {
		t.Errorf("AssetKey = %q, want %q", key, want)
	}
	if !strings.HasPrefix(scoped.SearchKey(SearchKeyOpts{}), "staging:search:") {
		t.Error("SearchKey should be prefixed")
	}
	if !strings.HasPrefix(scoped.RenderKey("x", RenderKeyOpts{}), "staging:render:") {
		t.Error("RenderKey should be prefixed")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if key := scoped.AssetKey("u"); !strings.HasPrefix(key, "prefix:asset:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestKeyType(t *testing.T) {
	k := NewDefaultKeyer()
	tests := []struct {
		key  string
		want string
	}{
		{k.AssetKey("u"), KindAsset},
		{k.SearchKey(SearchKeyOpts{}), KindSearch},
		{k.RenderKey("a", RenderKeyOpts{}), KindRender},
		{NewScopedKeyer(k, "prod:").AssetKey("u"), KindAsset},
		{"something-else", "other"},
	}
	for _, tt := range tests {
		if got := KeyType(tt.key); got != tt.want {
			t.Errorf("KeyType(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

type recordingHooks struct {
	hits, misses, sets []string
	setSize            int
}

func (r *recordingHooks) OnCacheHit(_ context.Context, kind string)  { r.hits = append(r.hits, kind) }
func (r *recordingHooks) OnCacheMiss(_ context.Context, kind string) { r.misses = append(r.misses, kind) }
func (r *recordingHooks) OnCacheSet(_ context.Context, kind string, size int) {
	r.sets = append(r.sets, kind)
	r.setSize += size
}

func TestObserve(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, _ := NewFileCache(t.TempDir())
	c := Observe(fc)
	if Observe(c) != c {
		t.Error("Observe should not wrap twice")
	}

	key := NewDefaultKeyer().AssetKey("u")
	_, _, _ = c.Get(ctx, key)
	_ = c.Set(ctx, key, []byte("12345"), 0)
	_, _, _ = c.Get(ctx, key)

	if len(hooks.misses) != 1 || hooks.misses[0] != KindAsset {
		t.Errorf("misses = %v, want [asset]", hooks.misses)
	}
	if len(hooks.hits) != 1 || hooks.hits[0] != KindAsset {
		t.Errorf("hits = %v, want [asset]", hooks.hits)
	}
	if len(hooks.sets) != 1 || hooks.setSize != 5 {
		t.Errorf("sets = %v (size %d), want one set of 5 bytes", hooks.sets, hooks.setSize)
	}
}
