package stac

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogdraster/pkg/buildinfo"
	"github.com/matzehuels/ogdraster/pkg/cache"
	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/field"
	"github.com/matzehuels/ogdraster/pkg/httputil"
	"github.com/matzehuels/ogdraster/pkg/observability"
)

const (
	httpTimeout = 60 * time.Second
	maxPages    = 20
	pageLimit   = 100

	// maxAssetBytes caps a single asset download. A full ICON-CH1 grid as JSON
	// is a few tens of MiB, so anything past this is not a field.
	maxAssetBytes = 512 << 20
)

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	// BaseURL is the STAC API root. Default: DefaultAPIURL.
	BaseURL string
	// HTTPClient performs requests. Default: a client with a 60s timeout.
	HTTPClient *http.Client
	// SearchCache stores search results. Nil disables search caching.
	SearchCache *httputil.Cache
	// AssetCache stores downloaded asset bytes. Default: cache.NewNullCache().
	AssetCache cache.Cache
	// AssetTTL is the lifetime of cached assets. Default: cache.AssetTTL.
	AssetTTL time.Duration
	// Keyer builds cache keys. Default: cache.NewDefaultKeyer().
	Keyer cache.Keyer
	// Refresh bypasses cache reads (results are still written).
	Refresh bool
	// Retries is the number of attempts per request. Default: 3.
	Retries int
	// RetryDelay is the initial backoff, doubled per attempt. Default: 1s.
	RetryDelay time.Duration
	// MaxAssetBytes caps the size of a downloaded asset. Default: 512 MiB.
	MaxAssetBytes int64
	// Logger receives debug output. Default: discard.
	Logger *log.Logger
}

// Client talks to a STAC API. It is safe for concurrent use.
type Client struct {
	http     *http.Client
	baseURL  string
	search   *httputil.Cache
	assets   cache.Cache
	assetTTL time.Duration
	keyer    cache.Keyer
	refresh  bool
	retries  int
	delay    time.Duration
	maxAsset int64
	logger   *log.Logger
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) *Client {
	c := &Client{
		http:     opts.HTTPClient,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		search:   opts.SearchCache,
		assets:   opts.AssetCache,
		assetTTL: opts.AssetTTL,
		keyer:    opts.Keyer,
		refresh:  opts.Refresh,
		retries:  opts.Retries,
		delay:    opts.RetryDelay,
		maxAsset: opts.MaxAssetBytes,
		logger:   opts.Logger,
	}
	if c.retries <= 0 {
		c.retries = 3
	}
	if c.delay <= 0 {
		c.delay = time.Second
	}
	if c.maxAsset <= 0 {
		c.maxAsset = maxAssetBytes
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultAPIURL
	}
	if c.assets == nil {
		c.assets = cache.NewNullCache()
	}
	if c.assetTTL == 0 {
		c.assetTTL = cache.AssetTTL
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// BaseURL returns the API root the client queries.
func (c *Client) BaseURL() string { return c.baseURL }

// Search returns every item matching req, following pagination links.
// req must already be normalized.
func (c *Client) Search(ctx context.Context, req Request) ([]Item, error) {
	key := c.keyer.SearchKey(cache.SearchKeyOpts{
		APIURL:     c.baseURL,
		Collection: req.Collection,
		Variable:   req.Variable,
		RefTime:    req.RefTime,
		Horizon:    req.Horizon,
		Perturbed:  req.Perturbed,
	})

	// "latest" must always see the newest run, so it is never read from cache.
	cacheable := c.search != nil && req.RefTime != Latest
	if cacheable && !c.refresh {
		var items []Item
		if ok, _ := c.search.Get(key, &items); ok {
			observability.Cache().OnCacheHit(ctx, cache.KindSearch)
			c.logger.Debug("search cache hit", "collection", req.Collection, "variable", req.Variable)
			return items, nil
		}
		observability.Cache().OnCacheMiss(ctx, cache.KindSearch)
	}

	body := searchBody{
		Collections: []string{req.Collection},
		Variable:    req.Variable,
		Horizon:     req.Horizon,
		Perturbed:   req.Perturbed,
		Limit:       pageLimit,
	}
	if req.RefTime != Latest {
		body.ReferenceDatetime = req.RefTime
	}

	var items []Item
	next := &Link{Href: c.baseURL + "/search", Method: http.MethodPost}
	var payload any = body
	for page := 0; next != nil; page++ {
		if page == maxPages {
			c.logger.Warn("search truncated", "pages", maxPages, "items", len(items))
			break
		}

		var ic ItemCollection
		err := c.retry(ctx, func() error {
			ic = ItemCollection{}
			return c.doJSON(ctx, next.Method, next.Href, payload, &ic)
		})
		if err != nil {
			return nil, fmt.Errorf("search %s/%s: %w", req.Collection, req.Variable, err)
		}
		items = append(items, ic.Features...)

		next, payload = nextPage(ic.Links, body)
	}

	if cacheable {
		if err := c.search.Set(key, items); err == nil {
			observability.Cache().OnCacheSet(ctx, cache.KindSearch, len(items))
		}
	}
	return items, nil
}

// nextPage finds the rel=next link and the body to send with it.
func nextPage(links []Link, body searchBody) (*Link, any) {
	for _, l := range links {
		if l.Rel != "next" || l.Href == "" {
			continue
		}
		next := l
		if next.Method == "" {
			next.Method = http.MethodGet
		}
		if next.Method == http.MethodGet {
			return &next, nil
		}
		if !next.Merge && next.Body != nil {
			return &next, next.Body
		}
		merged := map[string]any{}
		raw, _ := json.Marshal(body)
		_ = json.Unmarshal(raw, &merged)
		for k, v := range next.Body {
			merged[k] = v
		}
		return &next, merged
	}
	return nil, nil
}

// Find resolves req to a single item. With RefTime "latest" the newest run
// wins; otherwise the first match is returned.
func (c *Client) Find(ctx context.Context, req Request) (*Item, error) {
	req, err := req.Normalized()
	if err != nil {
		return nil, err
	}
	items, err := c.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New(errors.ErrCodeItemNotFound,
			"no item for %s %s at reference time %s, horizon %s (perturbed=%t)",
			req.Collection, req.Variable, req.RefTime, req.Horizon, req.Perturbed)
	}
	it := newest(items)
	if it.Properties.Variable == "" {
		it.Properties.Variable = req.Variable
	}
	c.logger.Debug("resolved item", "id", it.ID, "reference_datetime", it.Properties.ReferenceDatetime, "candidates", len(items))
	return &it, nil
}

// Download returns the bytes behind asset, consulting the asset cache first.
func (c *Client) Download(ctx context.Context, asset Asset) ([]byte, error) {
	if err := errors.ValidateURL(asset.Href); err != nil {
		return nil, err
	}
	key := c.keyer.AssetKey(asset.Href)
	if !c.refresh {
		if data, ok, err := c.assets.Get(ctx, key); err == nil && ok {
			return data, nil
		}
	}

	var data []byte
	err := c.retry(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, asset.Href, nil, "")
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(io.LimitReader(body, c.maxAsset+1))
		if err != nil {
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s", asset.Href)}
		}
		if int64(len(data)) > c.maxAsset {
			data = nil
			return errors.New(errors.ErrCodeUnsupported, "asset %s exceeds %d bytes", asset.Href, c.maxAsset)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.assets.Set(ctx, key, data, c.assetTTL); err != nil {
		c.logger.Warn("could not cache asset", "href", asset.Href, "err", err)
	}
	return data, nil
}

// Fetch resolves req, downloads its data asset and decodes it into a field
// named after the variable.
func (c *Client) Fetch(ctx context.Context, req Request) (*field.Field, *Item, error) {
	item, err := c.Find(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	f, err := c.FetchItem(ctx, item)
	if err != nil {
		return nil, item, err
	}
	return f, item, nil
}

// FetchItem downloads item's data asset and decodes it into a field named
// after the item's variable.
func (c *Client) FetchItem(ctx context.Context, item *Item) (*field.Field, error) {
	name, asset, ok := item.DataAsset(field.CanDecode)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "item %s has no assets", item.ID)
	}
	if !field.CanDecode(asset.Type) {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"item %s: asset %q has media type %q, which cannot be decoded into a field", item.ID, name, asset.Type)
	}

	data, err := c.Download(ctx, asset)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", item.ID, err)
	}
	f, err := field.Decode(bytes.NewReader(data), asset.Type)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", item.ID, err)
	}
	return f.Named(item.Properties.Variable), nil
}

func (c *Client) doJSON(ctx context.Context, method, rawURL string, in, out any) error {
	var payload io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
		contentType = "application/json"
	}

	body, err := c.do(ctx, method, rawURL, payload, contentType)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode response from %s", rawURL)
	}
	return nil
}

// do performs a request and reports it to the HTTP hooks. Non-2xx
// responses become structured errors; transient ones are retryable.
func (c *Client) do(ctx context.Context, method, rawURL string, payload io.Reader, contentType string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "application/json, */*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	host, path := hostPath(req.URL)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := errors.ErrCodeNetwork
		if isTimeout(err) {
			code = errors.ErrCodeTimeout
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(code, err, "%s %s", method, rawURL)}
	}
	hooks.OnResponse(ctx, method, host, path, resp.StatusCode, time.Since(start))

	if err := httputil.CheckResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) retry(ctx context.Context, fn func() error) error {
	return httputil.Retry(ctx, c.retries, c.delay, fn)
}

func hostPath(u *url.URL) (string, string) {
	if u == nil {
		return "", ""
	}
	return u.Host, u.Path
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
