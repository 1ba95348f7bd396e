package render

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/charmbracelet/log"
	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/ogdraster/pkg/errors"
	"github.com/matzehuels/ogdraster/pkg/field"
)

// Logger receives the renderer's diagnostic events.
// *log.Logger from github.com/charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
}

// Renderer converts fields to encoded raster images.
// It is immutable after New and safe for concurrent use.
type Renderer struct {
	mode       Mode
	allMissing AllMissingPolicy
	format     Format
	scale      int
	logger     Logger
}

// New creates a Renderer. Defaults: ModeAlpha, AllMissingError, FormatPNG,
// scale 1, and a logger that discards everything.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		mode:       ModeAlpha,
		allMissing: AllMissingError,
		format:     FormatPNG,
		scale:      1,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the configured output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// Format returns the configured output format.
func (r *Renderer) Format() Format { return r.format }

// Rasterize normalizes f into a Raster without encoding it.
func (r *Renderer) Rasterize(f *field.Field) (*Raster, error) {
	if f == nil {
		return nil, errors.New(errors.ErrCodeEmptyInput, "field is nil")
	}
	rows, cols := f.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "field shape %dx%d is empty", rows, cols)
	}

	// Working copy; f itself is never touched.
	work := f.Values()
	n := len(work)

	// The mask is taken before substitution and is what alpha is built from.
	missing := make([]bool, n)
	nMissing := 0
	for i, v := range work {
		if field.IsMissing(v) {
			missing[i] = true
			nMissing++
		}
	}

	rs := &Raster{
		Mode:    r.mode,
		Width:   cols,
		Height:  rows,
		Range:   f.Range(),
		Missing: nMissing,
		Lum:     make([]uint8, n),
	}
	if r.mode == ModeAlpha {
		rs.Alpha = make([]uint8, n)
		for i, m := range missing {
			if !m {
				rs.Alpha[i] = 255
			}
		}
	}

	if !rs.Range.Valid {
		if r.allMissing == AllMissingError {
			return nil, errors.New(errors.ErrCodeAllMissing,
				"all %d cells of field %q are missing", n, f.Name)
		}
		r.logger.Warn("Field has no finite values, generating a blank image",
			"field", f.Name, "cells", n)
		return rs, nil
	}

	if nMissing > 0 {
		r.logger.Warn("Field contains missing values, replacing them with the minimum for scaling",
			"field", f.Name, "missing", nMissing, "fill", rs.Range.Min)
		for i, m := range missing {
			if m {
				work[i] = rs.Range.Min
			}
		}
	}

	lo, hi := floats.Min(work), floats.Max(work)
	if hi == lo {
		r.logger.Warn("Field has constant values, generating a blank image",
			"field", f.Name, "value", lo)
		return rs, nil
	}

	for i, v := range work {
		rs.Lum[i] = quantize(v, lo, hi)
	}

	r.logger.Debug("Rasterized field",
		"field", f.Name, "rows", rows, "cols", cols, "min", lo, "max", hi, "mode", r.mode)
	return rs, nil
}

// quantize maps v from [lo, hi] onto [0, 255], truncating toward zero.
// Ranges wider than MaxFloat64 are scaled with halved operands, which keeps
// the mapping finite and monotonic for any pair of finite bounds.
func quantize(v, lo, hi float64) uint8 {
	num, span := v-lo, hi-lo
	var x float64
	if math.IsInf(span, 0) || math.IsInf(255*num, 0) {
		x = 255 * ((v/2 - lo/2) / (hi/2 - lo/2))
	} else {
		x = 255 * num / span
	}
	switch {
	case x <= 0:
		return 0
	case x >= 255:
		return 255
	default:
		return uint8(x)
	}
}

// Encode rasterizes f and writes the encoded image to w.
func (r *Renderer) Encode(w io.Writer, f *field.Field) error {
	rs, err := r.Rasterize(f)
	if err != nil {
		return err
	}
	return r.EncodeRaster(w, rs)
}

// EncodeRaster writes an already rasterized field to w in the configured format.
func (r *Renderer) EncodeRaster(w io.Writer, rs *Raster) error {
	return encodeImage(w, rs.Scaled(r.scale), r.format)
}

func encodeImage(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		return enc.Encode(w, img)
	}
}

// Render rasterizes and encodes f, returning the image bytes.
func (r *Renderer) Render(f *field.Field) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
