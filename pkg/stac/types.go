package stac

import (
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// CollectionPrefix is prepended to collection ids that lack it.
const CollectionPrefix = "ch.meteoschweiz."

// DefaultAPIURL is the public MeteoSwiss STAC endpoint.
const DefaultAPIURL = "https://data.geo.admin.ch/api/stac/v1"

// Request identifies one forecast field.
type Request struct {
	Collection string // e.g. "ogd-forecasting-icon-ch2"
	Variable   string // e.g. "T_2M"
	RefTime    string // "latest" or a timestamp
	Horizon    string // ISO-8601 duration; "" means P0DT0H
	Perturbed  bool   // ensemble member instead of the control run
}

// Normalized validates r and returns a copy with the collection prefixed,
// the horizon in canonical form and the reference time in RFC 3339
// (or "latest").
func (r Request) Normalized() (Request, error) {
	coll := NormalizeCollection(r.Collection)
	if err := errors.ValidateCollection(coll); err != nil {
		return Request{}, err
	}
	if err := errors.ValidateVariable(r.Variable); err != nil {
		return Request{}, err
	}

	horizon := r.Horizon
	if horizon == "" {
		horizon = DefaultHorizon
	}
	horizon, err := NormalizeHorizon(horizon)
	if err != nil {
		return Request{}, err
	}

	ref, err := ParseRefTime(r.RefTime)
	if err != nil {
		return Request{}, err
	}

	return Request{
		Collection: coll,
		Variable:   r.Variable,
		RefTime:    ref.String(),
		Horizon:    horizon,
		Perturbed:  r.Perturbed,
	}, nil
}

// NormalizeCollection lowercases id and adds [CollectionPrefix] if missing.
func NormalizeCollection(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" || strings.HasPrefix(id, CollectionPrefix) {
		return id
	}
	return CollectionPrefix + id
}

// searchBody is the JSON body POSTed to {api}/search.
type searchBody struct {
	Collections       []string `json:"collections"`
	Variable          string   `json:"forecast:variable"`
	ReferenceDatetime string   `json:"forecast:reference_datetime,omitempty"`
	Horizon           string   `json:"forecast:horizon"`
	Perturbed         bool     `json:"forecast:perturbed"`
	Limit             int      `json:"limit,omitempty"`
}

// ItemCollection is a page of search results.
type ItemCollection struct {
	Type     string `json:"type"`
	Features []Item `json:"features"`
	Links    []Link `json:"links"`
}

// Link is a STAC link. For POST pagination the next page is requested by
// sending Body (merged into the original body) to Href.
type Link struct {
	Rel    string         `json:"rel"`
	Href   string         `json:"href"`
	Method string         `json:"method,omitempty"`
	Body   map[string]any `json:"body,omitempty"`
	Merge  bool           `json:"merge,omitempty"`
}

// Item is a STAC item: one field of one model run.
type Item struct {
	ID         string           `json:"id"`
	Collection string           `json:"collection"`
	Properties ItemProperties   `json:"properties"`
	Assets     map[string]Asset `json:"assets"`
}

// ItemProperties holds the forecast extension properties.
type ItemProperties struct {
	Datetime          string `json:"datetime,omitempty"`
	ReferenceDatetime string `json:"forecast:reference_datetime"`
	Horizon           string `json:"forecast:horizon"`
	Variable          string `json:"forecast:variable"`
	Perturbed         bool   `json:"forecast:perturbed"`
}

// ReferenceTime parses the item's reference datetime. Unparseable values
// yield the zero time.
func (it Item) ReferenceTime() time.Time {
	t, err := time.Parse(time.RFC3339, it.Properties.ReferenceDatetime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DataAsset picks the asset to download: the first asset (by key) whose
// media type is decodable, else the first asset by key.
func (it Item) DataAsset(decodable func(mediaType string) bool) (string, Asset, bool) {
	if len(it.Assets) == 0 {
		return "", Asset{}, false
	}
	keys := make([]string, 0, len(it.Assets))
	for k := range it.Assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if decodable != nil && decodable(it.Assets[k].Type) {
			return k, it.Assets[k], true
		}
	}
	return keys[0], it.Assets[keys[0]], true
}

// Asset is a downloadable file attached to an item.
type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// newest returns the item with the latest reference time; ties keep the
// first one seen.
func newest(items []Item) Item {
	best := items[0]
	for _, it := range items[1:] {
		if it.ReferenceTime().After(best.ReferenceTime()) {
			best = it
		}
	}
	return best
}
