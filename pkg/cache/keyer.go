package cache

import "time"

// Key kinds produced by DefaultKeyer.
const (
	KindSearch = "search"
	KindAsset  = "asset"
	KindRender = "render"
)

// Keyer builds cache keys. Implementations must be deterministic: equal
// inputs yield equal keys.
type Keyer interface {
	// SearchKey identifies the result of a catalog search.
	SearchKey(opts SearchKeyOpts) string
	// AssetKey identifies the bytes behind an asset URL.
	AssetKey(href string) string
	// RenderKey identifies an encoded image rendered from an asset.
	RenderKey(assetKey string, opts RenderKeyOpts) string
}

// SearchKeyOpts are the query parameters that distinguish searches.
type SearchKeyOpts struct {
	APIURL     string `json:"api_url"`
	Collection string `json:"collection"`
	Variable   string `json:"variable"`
	RefTime    string `json:"ref_time"`
	Horizon    string `json:"horizon"`
	Perturbed  bool   `json:"perturbed"`
}

// RenderKeyOpts are the renderer settings that change output bytes.
type RenderKeyOpts struct {
	Mode       string `json:"mode"`
	Format     string `json:"format"`
	AllMissing string `json:"all_missing"`
	Scale      int    `json:"scale"`
}

// renderVersion is hashed into render keys. Bump it whenever the renderer
// produces different bytes for the same field and settings, so images cached
// by an older build are not served.
const renderVersion = 2

// DefaultKeyer hashes key inputs into "kind:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SearchKey implements Keyer.
func (DefaultKeyer) SearchKey(opts SearchKeyOpts) string {
	return hashKey(KindSearch, opts)
}

// AssetKey implements Keyer.
func (DefaultKeyer) AssetKey(href string) string {
	return hashKey(KindAsset, href)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(assetKey string, opts RenderKeyOpts) string {
	return hashKey(KindRender, renderVersion, assetKey, opts)
}

// Default TTLs. Search results go stale as soon as a new model run is
// published; assets for a given run never change.
const (
	SearchTTL = 10 * time.Minute
	AssetTTL  = 24 * time.Hour
	RenderTTL = 24 * time.Hour
)
