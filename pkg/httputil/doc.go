// Package httputil provides HTTP utilities for the STAC catalog client.
//
// # Overview
//
// This package provides infrastructure used by [github.com/matzehuels/ogdraster/pkg/stac]:
//
//   - [Cache]: File-based caching of decoded API responses
//   - [Retry]: Automatic retry with exponential backoff
//   - [CheckResponse]: Maps HTTP status codes onto structured errors
//
// # Caching
//
// [Cache] stores JSON-encoded responses in the filesystem
// (~/.cache/ogdraster/http/) with configurable TTL. Search results for a
// given reference time do not change, so repeated renders of the same
// forecast skip the catalog round trip.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 10*time.Minute)
//	var items []stac.Item
//	ok, err := cache.Get(key, &items)  // Check cache
//	if !ok {
//	    items = search()
//	    cache.Set(key, items)          // Store for later
//	}
//
// # Retry
//
// The STAC client runs every search page and asset download through
// [Retry], which attempts transient failures again:
//
//   - Network errors and interrupted asset reads
//   - 5xx server errors
//   - 429 rate limit responses, honoring Retry-After up to 30 seconds
//
// It uses exponential backoff:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return httputil.CheckResponse(resp)
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/ogdraster/http/
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `ogdraster cache clear` or by deleting
// the cache directory.
package httputil
