package httputil_test

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/ogdraster/pkg/httputil"
)

func ExampleCache() {
	dir := filepath.Join(os.TempDir(), "ogdraster-example")
	cache, err := httputil.NewCache(dir, time.Hour)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer os.RemoveAll(dir)

	item := map[string]string{"id": "icon-ch1-t2m-20250101", "href": "https://example.com/t2m.json"}
	if err := cache.Namespace("search:").Set("T_2M", item); err != nil {
		fmt.Println("Error:", err)
		return
	}

	var result map[string]string
	if ok, err := cache.Namespace("search:").Get("T_2M", &result); ok && err == nil {
		fmt.Println("ID:", result["id"])
	}
	// Output:
	// ID: icon-ch1-t2m-20250101
}

func ExampleCache_miss() {
	dir := filepath.Join(os.TempDir(), "ogdraster-example-miss")
	cache, _ := httputil.NewCache(dir, time.Hour)
	defer os.RemoveAll(dir)

	var result string
	ok, err := cache.Get("nonexistent", &result)
	fmt.Println("Found:", ok)
	fmt.Println("Error:", err)
	// Output:
	// Found: false
	// Error: <nil>
}
