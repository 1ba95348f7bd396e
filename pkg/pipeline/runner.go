package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogdraster/pkg/cache"
	"github.com/matzehuels/ogdraster/pkg/field"
	"github.com/matzehuels/ogdraster/pkg/observability"
	"github.com/matzehuels/ogdraster/pkg/render"
	"github.com/matzehuels/ogdraster/pkg/stac"
)

// Source resolves catalog requests to items and items to fields.
// *stac.Client implements it.
type Source interface {
	Find(ctx context.Context, req stac.Request) (*stac.Item, error)
	FetchItem(ctx context.Context, item *stac.Item) (*field.Field, error)
}

// Runner encapsulates pipeline execution with caching.
// Both CLI and service use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Source Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (render caching disabled).
// If logger is nil, output is discarded.
// src may be nil when only local input will be processed.
func NewRunner(src Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete fetch → render → write pipeline.
//
// For catalog input the rendered image is cached per item and render
// settings, so a cache hit skips both the download and the rendering.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Format: render.Format(opts.Format)}

	// Stage 1: Fetch (or resolve from the render cache)
	fetchStart := time.Now()
	var renderKey string
	if opts.Input == "" {
		item, err := r.Find(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		result.Item = item
		renderKey = r.Keyer.RenderKey(item.Collection+"/"+item.ID, opts.RenderKeyOpts())

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, renderKey); err == nil && hit {
				r.Logger.Debug("render cache hit", "item", item.ID)
				result.Image = data
				result.CacheInfo.RenderHit = true
			}
		}
	}

	if !result.CacheInfo.RenderHit {
		f, err := r.fetchField(ctx, opts, result.Item)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		result.Field = f
		rows, cols := f.Dims()
		result.Stats.Rows, result.Stats.Cols = rows, cols
		result.Stats.Missing = f.MissingCount()
		result.Stats.Range = f.Range()
	}
	result.Stats.FetchTime = time.Since(fetchStart)

	// Stage 2: Render
	if !result.CacheInfo.RenderHit {
		renderStart := time.Now()
		data, err := r.Render(ctx, result.Field, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Image = data
		result.Stats.RenderTime = time.Since(renderStart)

		if renderKey != "" {
			_ = r.Cache.Set(ctx, renderKey, data, cache.RenderTTL)
		}

		r.Logger.Info("rendered field",
			"field", result.Field.Name,
			"size", fmt.Sprintf("%dx%d", result.Stats.Cols, result.Stats.Rows),
			"missing", result.Stats.Missing,
			"duration", result.Stats.RenderTime)
	}

	// Stage 3: Write
	if opts.Output != "" {
		writeStart := time.Now()
		if err := r.Write(opts.Output, result.Image, opts); err != nil {
			return nil, err
		}
		result.Path = opts.Output
		result.Stats.WriteTime = time.Since(writeStart)
	}

	return result, nil
}

// Find resolves the catalog item for opts.
func (r *Runner) Find(ctx context.Context, opts Options) (*stac.Item, error) {
	if r.Source == nil {
		return nil, fmt.Errorf("no catalog source configured")
	}
	return r.Source.Find(ctx, opts.Request())
}

// Fetch obtains the field described by opts: a local file when opts.Input
// is set, otherwise the catalog item.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*field.Field, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForFetch(); err != nil {
		return nil, err
	}
	var item *stac.Item
	if opts.Input == "" {
		var err error
		if item, err = r.Find(ctx, opts); err != nil {
			return nil, err
		}
	}
	return r.fetchField(ctx, opts, item)
}

func (r *Runner) fetchField(ctx context.Context, opts Options, item *stac.Item) (f *field.Field, err error) {
	collection, variable := opts.Collection, opts.Variable
	if opts.Input != "" {
		collection, variable = "local", opts.Input
	}

	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, collection, variable)
	start := time.Now()
	defer func() {
		cells := 0
		if f != nil {
			cells = f.Len()
		}
		hooks.OnFetchComplete(ctx, collection, variable, cells, time.Since(start), err)
	}()

	if opts.Input != "" {
		return field.ReadFile(opts.Input)
	}
	if r.Source == nil {
		return nil, fmt.Errorf("no catalog source configured")
	}
	r.Logger.Debug("downloading item", "item", item.ID, "reference_datetime", item.Properties.ReferenceDatetime)
	return r.Source.FetchItem(ctx, item)
}

// Render rasterizes and encodes f with the render options.
func (r *Runner) Render(ctx context.Context, f *field.Field, opts Options) (data []byte, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	renderer, err := opts.Renderer()
	if err != nil {
		return nil, err
	}

	name := ""
	if f != nil {
		name = f.Name
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, name, opts.Mode, opts.Format)
	start := time.Now()
	defer func() {
		hooks.OnRenderComplete(ctx, name, len(data), time.Since(start), err)
	}()

	return renderer.Render(f)
}

// Write replaces path with data.
func (r *Runner) Write(path string, data []byte, opts Options) error {
	r.Logger.Info("Saving image", "path", path, "format", opts.Format)
	return render.WriteAtomic(path, data)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
