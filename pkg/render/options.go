package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// Mode selects how missing cells appear in the output.
type Mode int

const (
	// ModeAlpha emits four channels (luminance x3 + alpha). Missing cells
	// are fully transparent.
	ModeAlpha Mode = iota
	// ModeOpaque emits a single luminance channel. Missing cells take the
	// luminance of the minimum finite value.
	ModeOpaque
)

// String returns the flag spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAlpha:
		return "alpha"
	case ModeOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "alpha" or "opaque" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alpha", "with-alpha", "rgba":
		return ModeAlpha, nil
	case "opaque", "opaque-fill", "gray":
		return ModeOpaque, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidMode, "invalid mode: %q (must be 'alpha' or 'opaque')", s)
	}
}

// AllMissingPolicy decides what happens when a field has no finite sample.
type AllMissingPolicy int

const (
	// AllMissingError fails with errors.ErrCodeAllMissing.
	AllMissingError AllMissingPolicy = iota
	// AllMissingBlank renders luminance 0 everywhere (and alpha 0 in ModeAlpha).
	AllMissingBlank
)

// String returns the flag spelling of the policy.
func (p AllMissingPolicy) String() string {
	switch p {
	case AllMissingError:
		return "error"
	case AllMissingBlank:
		return "blank"
	default:
		return fmt.Sprintf("AllMissingPolicy(%d)", int(p))
	}
}

// ParseAllMissing parses "error" or "blank" (case-insensitive).
func ParseAllMissing(s string) (AllMissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "fail":
		return AllMissingError, nil
	case "blank", "transparent":
		return AllMissingBlank, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid all-missing policy: %q (must be 'error' or 'blank')", s)
	}
}

// Format is a lossless output encoding.
type Format string

// Supported output formats.
const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[Format]bool{
	FormatPNG:  true,
	FormatTIFF: true,
}

// ParseFormat parses a format name. "tif" is accepted for TIFF.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "tif" {
		f = FormatTIFF
	}
	if !ValidFormats[f] {
		return "", errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be 'png' or 'tiff')", s)
	}
	return f, nil
}

// FormatForPath infers the format from a file extension, falling back to PNG.
func FormatForPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tif") || strings.HasSuffix(lower, ".tiff") {
		return FormatTIFF
	}
	return FormatPNG
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatTIFF {
		return "image/tiff"
	}
	return "image/png"
}

// Extension returns the file extension of the format, with the leading dot.
func (f Format) Extension() string {
	if f == FormatTIFF {
		return ".tiff"
	}
	return ".png"
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMode sets the output mode (default ModeAlpha).
func WithMode(m Mode) Option {
	return func(r *Renderer) { r.mode = m }
}

// WithAllMissing sets the all-missing policy (default AllMissingError).
func WithAllMissing(p AllMissingPolicy) Option {
	return func(r *Renderer) { r.allMissing = p }
}

// WithFormat sets the output encoding (default FormatPNG).
func WithFormat(f Format) Option {
	return func(r *Renderer) { r.format = f }
}

// WithScale upsamples the raster by an integer factor using nearest-neighbour
// sampling, which keeps alpha binary. Factors below 1 are ignored.
func WithScale(n int) Option {
	return func(r *Renderer) {
		if n >= 1 {
			r.scale = n
		}
	}
}

// WithLogger sets the logger that receives the missing-value and
// constant-field warnings. A nil logger is ignored.
func WithLogger(l Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}
