// Package pipeline provides the fetch → render → write pipeline shared by
// the CLI and the HTTP service.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Resolve a STAC item and decode its asset into a field, or read
//     a local field file
//  2. Render: Normalize the field into an 8-bit raster and encode it
//  3. Write: Atomically replace the output file (CLI only)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Collection: "ogd-forecasting-icon-ch2",
//	    Variable:   "T_2M",
//	    Output:     "t2m.png",
//	})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogdraster/pkg/cache"
	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/field"
	"github.com/matzehuels/ogdraster/pkg/render"
	"github.com/matzehuels/ogdraster/pkg/stac"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Service
// =============================================================================

const (
	// DefaultMode keeps missing cells distinguishable from the minimum.
	DefaultMode = "alpha"

	// DefaultFormat is the default output encoding.
	DefaultFormat = "png"

	// DefaultAllMissing fails rather than writing an empty image.
	DefaultAllMissing = "error"

	// DefaultScale renders one pixel per cell.
	DefaultScale = 1

	// MaxScale bounds --scale so a typo cannot allocate gigabytes.
	MaxScale = 16
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for service requests.
type Options struct {
	// Fetch options
	Collection string `json:"collection,omitempty"`
	Variable   string `json:"variable,omitempty"`
	RefTime    string `json:"ref_time,omitempty"`
	Horizon    string `json:"horizon,omitempty"`
	Perturbed  bool   `json:"perturbed,omitempty"`
	Input      string `json:"-"` // Local .json/.csv field instead of the catalog
	Refresh    bool   `json:"refresh,omitempty"`

	// Render options
	Mode       string `json:"mode,omitempty"`
	Format     string `json:"format,omitempty"`
	AllMissing string `json:"all_missing,omitempty"`
	Scale      int    `json:"scale,omitempty"`

	// Output path; empty keeps the image in memory only.
	Output string `json:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Field is the decoded input field.
	Field *field.Field

	// Item is the resolved catalog item (nil for local input).
	Item *stac.Item

	// Image is the encoded raster.
	Image []byte

	// Format is the encoding of Image.
	Format render.Format

	// Path is where Image was written ("" if not written).
	Path string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Rows       int
	Cols       int
	Missing    int
	Range      field.Range
	FetchTime  time.Duration
	RenderTime time.Duration
	WriteTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	RenderHit bool // Whether the image came from the render cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateMode checks that a mode is valid.
func ValidateMode(mode string) error {
	_, err := render.ParseMode(mode)
	return err
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	_, err := render.ParseFormat(format)
	return err
}

// ValidateAllMissing checks that an all-missing policy is valid.
func ValidateAllMissing(policy string) error {
	_, err := render.ParseAllMissing(policy)
	return err
}

// ValidateScale checks that an upsampling factor is in range.
func ValidateScale(scale int) error {
	if scale < 1 || scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale: %d (must be between 1 and %d)", scale, MaxScale)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForFetch(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	if o.Output != "" {
		if err := errors.ValidateOutputPath(o.Output); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// ValidateForFetch checks the fields needed to obtain a field.
func (o *Options) ValidateForFetch() error {
	if o.Input == "" {
		if o.Collection == "" {
			return errors.New(errors.ErrCodeInvalidInput, "collection is required")
		}
		if o.Variable == "" {
			return errors.New(errors.ErrCodeInvalidInput, "variable is required")
		}
		if _, err := o.Request().Normalized(); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if o.Format == "" {
		if o.Output != "" {
			o.Format = string(render.FormatForPath(o.Output))
		} else {
			o.Format = DefaultFormat
		}
	}
	if o.AllMissing == "" {
		o.AllMissing = DefaultAllMissing
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
// Accepted aliases (e.g. "tif", "opaque-fill") are rewritten to their
// canonical spelling so that equal settings produce equal cache keys.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	mode, err := render.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	format, err := render.ParseFormat(o.Format)
	if err != nil {
		return err
	}
	policy, err := render.ParseAllMissing(o.AllMissing)
	if err != nil {
		return err
	}
	o.Mode, o.Format, o.AllMissing = mode.String(), string(format), policy.String()
	return ValidateScale(o.Scale)
}

// Request returns the catalog request described by o.
func (o *Options) Request() stac.Request {
	return stac.Request{
		Collection: o.Collection,
		Variable:   o.Variable,
		RefTime:    o.RefTime,
		Horizon:    o.Horizon,
		Perturbed:  o.Perturbed,
	}
}

// Renderer builds a renderer from the render options. Call
// ValidateForRender first.
func (o *Options) Renderer() (*render.Renderer, error) {
	mode, err := render.ParseMode(o.Mode)
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(o.Format)
	if err != nil {
		return nil, err
	}
	policy, err := render.ParseAllMissing(o.AllMissing)
	if err != nil {
		return nil, err
	}
	if err := ValidateScale(o.Scale); err != nil {
		return nil, err
	}
	return render.New(
		render.WithMode(mode),
		render.WithFormat(format),
		render.WithAllMissing(policy),
		render.WithScale(o.Scale),
		render.WithLogger(o.Logger),
	), nil
}

// RenderKeyOpts returns cache key options for rendered images.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{
		Mode:       o.Mode,
		Format:     o.Format,
		AllMissing: o.AllMissing,
		Scale:      o.Scale,
	}
}

// Describe returns a short human label for the field being processed.
func (o *Options) Describe() string {
	if o.Input != "" {
		return o.Input
	}
	return fmt.Sprintf("%s/%s", o.Collection, o.Variable)
}
