package render_test

import (
	"fmt"
	"math"

	"github.com/matzehuels/ogdraster/pkg/field"
	"github.com/matzehuels/ogdraster/pkg/render"
)

func ExampleRenderer_Rasterize() {
	f, _ := field.New([][]float64{
		{0, 10},
		{20, math.NaN()},
	})

	rs, _ := render.New(render.WithMode(render.ModeAlpha)).Rasterize(f)
	fmt.Println("luminance:", rs.Lum)
	fmt.Println("alpha:", rs.Alpha)
	// Output:
	// luminance: [0 127 255 0]
	// alpha: [255 255 255 0]
}

func ExampleRenderer_Rasterize_constant() {
	f, _ := field.New([][]float64{{5, 5}, {5, 5}})

	rs, _ := render.New().Rasterize(f)
	fmt.Println("luminance:", rs.Lum)
	fmt.Println("alpha:", rs.Alpha)
	// Output:
	// luminance: [0 0 0 0]
	// alpha: [255 255 255 255]
}
