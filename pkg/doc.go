// Package pkg provides the libraries behind ogdraster, which renders
// MeteoSwiss open data forecast fields as 8-bit grayscale rasters.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [field] and [render] - Domain logic (the field model and the renderer)
//  2. [stac] - Catalog client for the MeteoSwiss STAC API
//  3. [cache], [httputil] and [observability] - Infrastructure
//  4. [pipeline] - Orchestration (fetch → render → write)
//
// # Architecture
//
// The typical data flow through ogdraster:
//
//	STAC catalog / local JSON or CSV file
//	         ↓
//	    [stac] package (search items, download the asset)
//	         ↓
//	    [field] package (decode into a row-major float64 grid)
//	         ↓
//	    [render] package (normalize, quantize, compose, encode)
//	         ↓
//	    PNG/TIFF output
//
// # Quick Start
//
// Render a field you already hold in memory:
//
//	import (
//	    "github.com/matzehuels/ogdraster/pkg/field"
//	    "github.com/matzehuels/ogdraster/pkg/render"
//	)
//
//	f, _ := field.New([][]float64{{0, 10}, {20, math.NaN()}})
//	r := render.New(render.WithMode(render.ModeAlpha))
//	_ = r.WriteFile("out.png", f)
//
// Or run the whole pipeline against the catalog:
//
//	client := stac.NewClient(stac.ClientOptions{})
//	runner := pipeline.NewRunner(client, nil, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Collection: "ogd-forecasting-icon-ch2",
//	    Variable:   "T_2M",
//	    Output:     "t2m.png",
//	})
//
// # Error Handling
//
// All packages return structured errors from [errors] with machine-readable
// codes:
//
//	if errors.Is(err, errors.ErrCodeAllMissing) {
//	    // The field has no finite sample
//	}
//
// [field]: github.com/matzehuels/ogdraster/pkg/field
// [render]: github.com/matzehuels/ogdraster/pkg/render
// [stac]: github.com/matzehuels/ogdraster/pkg/stac
// [cache]: github.com/matzehuels/ogdraster/pkg/cache
// [httputil]: github.com/matzehuels/ogdraster/pkg/httputil
// [observability]: github.com/matzehuels/ogdraster/pkg/observability
// [pipeline]: github.com/matzehuels/ogdraster/pkg/pipeline
// [errors]: github.com/matzehuels/ogdraster/pkg/errors
package pkg
