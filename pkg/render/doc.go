// Package render turns a [field.Field] into an 8-bit grayscale raster image.
//
// # Overview
//
// The [Renderer] is the only part of ogdraster that makes numeric decisions:
//
//  1. Missing cells (NaN, ±Inf) are detected on the untouched field.
//  2. Missing cells are replaced in a private working copy by the minimum
//     finite value, so scaling only ever sees finite data.
//  3. The working copy is scaled linearly from [min, max] to [0, 255] and
//     truncated to uint8. A constant field renders as all zeros.
//  4. Channels are composed according to the [Mode]: [ModeAlpha] emits
//     luminance replicated to RGB plus a binary alpha channel (0 for missing,
//     255 otherwise); [ModeOpaque] emits a single luminance channel in which
//     missing cells look like the minimum.
//  5. The raster is encoded losslessly (PNG by default, TIFF optionally).
//
// The caller's field is never modified.
//
// # Usage
//
//	r := render.New(
//	    render.WithMode(render.ModeAlpha),
//	    render.WithLogger(logger),
//	)
//	if err := r.WriteFile("t2m.png", f); err != nil {
//	    return err
//	}
//
// # All-Missing Fields
//
// A field without a single finite sample has no normalization range. By
// default the Renderer fails with [errors.ErrCodeAllMissing] and writes
// nothing. With [WithAllMissing]([AllMissingBlank]) it instead produces an
// image whose luminance is 0 everywhere and, in [ModeAlpha], whose alpha is 0
// everywhere.
//
// # Concurrency
//
// A Renderer holds only its configuration and may be shared between
// goroutines. Concurrent [Renderer.WriteFile] calls must target distinct
// paths.
//
// [field.Field]: github.com/matzehuels/ogdraster/pkg/field.Field
// [errors.ErrCodeAllMissing]: github.com/matzehuels/ogdraster/pkg/errors.ErrCodeAllMissing
package render
