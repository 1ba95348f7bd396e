package field

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/ogdraster/pkg/errors"
)

// Media types understood by [Decode].
const (
	MediaTypeJSON = "application/json"
	MediaTypeCSV  = "text/csv"
)

// Decode reads an encoded field of the given media type from r.
// Media type parameters (e.g. "; charset=utf-8") are ignored.
func Decode(r io.Reader, mediaType string) (*Field, error) {
	switch baseMediaType(mediaType) {
	case MediaTypeJSON, "application/geo+json":
		return DecodeJSON(r)
	case MediaTypeCSV:
		return DecodeCSV(r)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported field media type %q", mediaType)
	}
}

// CanDecode reports whether [Decode] understands mediaType.
func CanDecode(mediaType string) bool {
	switch baseMediaType(mediaType) {
	case MediaTypeJSON, "application/geo+json", MediaTypeCSV:
		return true
	}
	return false
}

func baseMediaType(mediaType string) string {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mt
}

// ReadFile decodes a field from a local .json or .csv file.
// The file name (without extension) becomes the field name.
func ReadFile(path string) (*Field, error) {
	var mt string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		mt = MediaTypeJSON
	case ".csv":
		mt = MediaTypeCSV
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported field file extension %q (want .json or .csv)", ext)
	}

	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := Decode(file, mt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f.Named(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))), nil
}

// DecodeJSON reads a field encoded as nested JSON arrays.
//
// null and the strings "NaN", "Inf" and "-Inf" decode to missing cells.
// Singleton dimensions beyond the last two are squeezed away, so a
// [1][1][H][W] document yields an H x W field. Documents that are not
// two-dimensional after squeezing fail with [errors.ErrCodeInvalidShape].
func DecodeJSON(r io.Reader) (*Field, error) {
	var doc any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode JSON field")
	}

	w := jsonWalker{leafDepth: -1}
	if err := w.walk(doc, 0); err != nil {
		return nil, err
	}
	return fromShape(w.shape, w.vals)
}

// jsonWalker flattens a nested JSON array while checking it is rectangular.
type jsonWalker struct {
	shape     []int
	vals      []float64
	leafDepth int
}

func (w *jsonWalker) walk(v any, depth int) error {
	arr, ok := v.([]any)
	if !ok {
		if depth == 0 {
			return errors.New(errors.ErrCodeInvalidShape, "JSON field is a scalar, want a 2-D array")
		}
		if w.leafDepth == -1 {
			w.leafDepth = depth
		} else if w.leafDepth != depth {
			return errors.New(errors.ErrCodeInvalidShape, "JSON field mixes values and arrays at depth %d", depth)
		}
		x, err := jsonValue(v)
		if err != nil {
			return err
		}
		w.vals = append(w.vals, x)
		return nil
	}

	if w.leafDepth != -1 && depth >= w.leafDepth {
		return errors.New(errors.ErrCodeInvalidShape, "JSON field mixes values and arrays at depth %d", depth)
	}
	if depth == len(w.shape) {
		w.shape = append(w.shape, len(arr))
	} else if w.shape[depth] != len(arr) {
		return errors.New(errors.ErrCodeInvalidShape,
			"ragged JSON field: array of length %d at depth %d, want %d", len(arr), depth, w.shape[depth])
	}
	for _, child := range arr {
		if err := w.walk(child, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func jsonValue(v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return x, nil
	case string:
		if f, ok := parseSample(x); ok {
			return f, nil
		}
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid JSON sample %q", x)
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid JSON sample of type %T", v)
	}
}

// fromShape squeezes singleton leading dimensions and builds the field.
func fromShape(shape []int, vals []float64) (*Field, error) {
	for _, n := range shape {
		if n == 0 {
			return nil, errors.New(errors.ErrCodeEmptyInput, "field shape %v has a zero-length dimension", shape)
		}
	}
	dims := append([]int(nil), shape...)
	for len(dims) > 2 {
		i := indexOf(dims, 1)
		if i < 0 {
			break
		}
		dims = append(dims[:i], dims[i+1:]...)
	}
	if len(dims) != 2 {
		return nil, errors.New(errors.ErrCodeInvalidShape, "field shape %v is not two-dimensional", shape)
	}
	return &Field{rows: dims[0], cols: dims[1], vals: vals}, nil
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// DecodeCSV reads a field with one CSV record per row.
// Empty cells and "NaN", "nan" or "NA" decode to missing cells; lines
// starting with '#' are skipped.
func DecodeCSV(r io.Reader) (*Field, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if pe, ok := err.(*csv.ParseError); ok && pe.Err == csv.ErrFieldCount {
				return nil, errors.Wrap(errors.ErrCodeInvalidShape, err, "ragged CSV field")
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode CSV field")
		}
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, ok := parseSample(cell)
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidInput,
					"invalid CSV sample %q at row %d, column %d", cell, len(rows)+1, j+1)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return New(rows)
}

// parseSample parses a textual sample, mapping the usual no-data spellings to NaN.
func parseSample(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "na", "null":
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
