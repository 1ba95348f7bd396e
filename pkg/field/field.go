package field

import (
	"math"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// Field is an immutable row-major grid of float64 samples.
// Sample (i, j) lives at vals[i*cols+j].
type Field struct {
	// Name identifies the field in log output (e.g. "T_2M"). It has no
	// effect on rendering.
	Name string

	rows, cols int
	vals       []float64
}

// New builds a field from nested rows. The data is copied.
// All rows must have the same, non-zero length.
func New(rows [][]float64) (*Field, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "field has no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "field has no columns")
	}

	vals := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.New(errors.ErrCodeInvalidShape,
				"row %d has %d values, want %d", i, len(row), cols)
		}
		vals = append(vals, row...)
	}
	return &Field{rows: len(rows), cols: cols, vals: vals}, nil
}

// FromSlice builds a rows x cols field from row-major values. The data is copied.
func FromSlice(rows, cols int, vals []float64) (*Field, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.New(errors.ErrCodeEmptyInput, "field shape %dx%d is empty", rows, cols)
	}
	// int64 product so huge shapes cannot overflow on 32-bit platforms.
	if int64(rows)*int64(cols) != int64(len(vals)) {
		return nil, errors.New(errors.ErrCodeInvalidShape,
			"got %d values for a %dx%d field", len(vals), rows, cols)
	}
	return &Field{rows: rows, cols: cols, vals: append([]float64(nil), vals...)}, nil
}

// Dims returns the number of rows and columns.
func (f *Field) Dims() (rows, cols int) { return f.rows, f.cols }

// Len returns the number of cells.
func (f *Field) Len() int { return len(f.vals) }

// At returns the sample at row i, column j. It panics if the index is out of range.
func (f *Field) At(i, j int) float64 {
	if i < 0 || i >= f.rows || j < 0 || j >= f.cols {
		panic("field: index out of range")
	}
	return f.vals[i*f.cols+j]
}

// Values returns a row-major copy of the samples.
func (f *Field) Values() []float64 {
	return append([]float64(nil), f.vals...)
}

// Named returns a field sharing f's samples under a different name.
// Sharing is safe because neither field can be mutated.
func (f *Field) Named(name string) *Field {
	g := *f
	g.Name = name
	return &g
}

// MissingCount returns the number of missing cells.
func (f *Field) MissingCount() int {
	n := 0
	for _, v := range f.vals {
		if IsMissing(v) {
			n++
		}
	}
	return n
}

// IsMissing reports whether v marks a missing cell.
func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
