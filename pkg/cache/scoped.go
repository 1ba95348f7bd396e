package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis instance without seeing each other's entries.
//
// Example usage:
//
//	// Separate staging from production
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SearchKey generates a prefixed key for catalog search results.
func (k *ScopedKeyer) SearchKey(opts SearchKeyOpts) string {
	return k.prefix + k.inner.SearchKey(opts)
}

// AssetKey generates a prefixed key for asset bytes.
func (k *ScopedKeyer) AssetKey(href string) string {
	return k.prefix + k.inner.AssetKey(href)
}

// RenderKey generates a prefixed key for rendered images.
func (k *ScopedKeyer) RenderKey(assetKey string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(assetKey, opts)
}
