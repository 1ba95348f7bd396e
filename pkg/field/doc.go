// Package field provides the immutable 2-D sample grid that ogdraster renders.
//
// A [Field] is a row-major grid of float64 samples with shape (rows, cols),
// both at least 1. A NaN sample marks a missing cell ("no data here"); ±Inf
// samples are treated the same way because they cannot be normalized.
//
// Fields are immutable: constructors copy the caller's data and no accessor
// hands out the backing slice, so a renderer working on a field can never
// corrupt data the caller still owns.
//
// # Construction
//
// Fields come from nested slices, flat slices, gonum matrices or encoded
// documents:
//
//	f, err := field.New([][]float64{{0, 10}, {20, math.NaN()}})
//	f, err := field.FromSlice(2, 2, vals)
//	f, err := field.FromMatrix(dense)
//	f, err := field.Decode(r, "application/json")
//	f, err := field.ReadFile("t2m.csv")
//
// Construction failures carry the codes [errors.ErrCodeEmptyInput] (a zero
// dimension) and [errors.ErrCodeInvalidShape] (ragged rows, or a document
// that is not two-dimensional).
//
// # Normalization Range
//
// [Field.Range] returns the minimum and maximum of the finite samples. A
// field with no finite samples yields a [Range] with Valid == false instead of
// NaN bounds.
package field
