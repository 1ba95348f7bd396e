package render

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/matzehuels/ogdraster/pkg/field"
)

// Raster is a rendered field before encoding.
type Raster struct {
	Mode          Mode
	Width, Height int

	// Range is the normalization range of the source field.
	Range field.Range
	// Missing is the number of missing cells in the source field.
	Missing int

	// Lum holds one luminance byte per cell, row-major.
	Lum []uint8
	// Alpha holds one alpha byte per cell (0 or 255), row-major.
	// It is nil in ModeOpaque.
	Alpha []uint8
}

// Image returns the raster as an *image.Gray (ModeOpaque) or an
// *image.NRGBA (ModeAlpha). Non-premultiplied RGBA keeps the luminance of
// transparent pixels intact.
func (r *Raster) Image() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Alpha == nil {
		return &image.Gray{Pix: r.Lum, Stride: r.Width, Rect: rect}
	}

	img := image.NewNRGBA(rect)
	for i, l := range r.Lum {
		p := img.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = l, l, l, r.Alpha[i]
	}
	return img
}

// Scaled returns the raster image upsampled n times with nearest-neighbour
// sampling. n <= 1 returns Image unchanged.
func (r *Raster) Scaled(n int) image.Image {
	src := r.Image()
	if n <= 1 {
		return src
	}

	rect := image.Rect(0, 0, r.Width*n, r.Height*n)
	var dst draw.Image
	if r.Alpha == nil {
		dst = image.NewGray(rect)
	} else {
		dst = image.NewNRGBA(rect)
	}
	draw.NearestNeighbor.Scale(dst, rect, src, src.Bounds(), draw.Src, nil)
	return dst
}
