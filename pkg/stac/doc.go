// Package stac retrieves forecast fields from the MeteoSwiss Open
// Government Data STAC catalog.
//
// # Overview
//
// A [Request] names a collection, a variable, a reference time, a lead time
// (horizon) and whether the ensemble member rather than the control run is
// wanted. [Client.Find] turns it into a single catalog [Item] using the STAC
// item-search endpoint; [Client.Fetch] additionally downloads the item's data
// asset and decodes it into a [field.Field].
//
//	client := stac.NewClient(stac.ClientOptions{
//	    SearchCache: httpCache,
//	    AssetCache:  assetCache,
//	})
//	f, item, err := client.Fetch(ctx, stac.Request{
//	    Collection: "ogd-forecasting-icon-ch2",
//	    Variable:   "T_2M",
//	    RefTime:    stac.Latest,
//	})
//
// # Reference Times
//
// "latest" is resolved client side: the search omits the reference time and
// the item with the newest forecast:reference_datetime wins.
//
// # Horizons
//
// Horizons are ISO-8601 durations restricted to days, hours, minutes and
// seconds ([ParseHorizon]). The catalog expects the canonical spelling
// produced by [FormatHorizon], e.g. "P0DT0H" or "P1DT6H".
//
// # Assets
//
// Asset bytes are cached in a [cache.Cache] keyed by URL. Only assets whose
// media type [field.Decode] understands can be turned into fields; GRIB2
// assets are reported as errors.ErrCodeUnsupported.
//
// [field.Field]: github.com/matzehuels/ogdraster/pkg/field.Field
// [field.Decode]: github.com/matzehuels/ogdraster/pkg/field.Decode
// [cache.Cache]: github.com/matzehuels/ogdraster/pkg/cache.Cache
package stac
