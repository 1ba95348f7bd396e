package field

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// FromMatrix copies a gonum matrix into a field. NaN elements become missing cells.
func FromMatrix(m mat.Matrix) (*Field, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "matrix shape %dx%d is empty", r, c)
	}
	vals := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			vals[i*c+j] = m.At(i, j)
		}
	}
	return &Field{rows: r, cols: c, vals: vals}, nil
}

// Dense returns a copy of the field as a gonum dense matrix.
func (f *Field) Dense() *mat.Dense {
	return mat.NewDense(f.rows, f.cols, f.Values())
}
