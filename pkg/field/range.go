package field

import "gonum.org/v1/gonum/floats"

// Range is the normalization range of a field: the bounds of its finite samples.
type Range struct {
	Min, Max float64
	// Valid is false when the field has no finite samples; Min and Max are
	// then zero.
	Valid bool
}

// Degenerate reports whether the range cannot be used to scale values,
// either because it is empty or because Min == Max.
func (r Range) Degenerate() bool {
	return !r.Valid || r.Min == r.Max
}

// Span returns Max - Min, or 0 for an invalid range.
func (r Range) Span() float64 {
	if !r.Valid {
		return 0
	}
	return r.Max - r.Min
}

// Range computes the bounds of the finite samples, ignoring missing cells.
func (f *Field) Range() Range {
	finite := make([]float64, 0, len(f.vals))
	for _, v := range f.vals {
		if !IsMissing(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return Range{}
	}
	return Range{Min: floats.Min(finite), Max: floats.Max(finite), Valid: true}
}
