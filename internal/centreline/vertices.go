package centreline

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultVertices is the default vertex grid size (rows, columns).
var DefaultVertices = [2]int{3, 3}

// Vertex is one sample location of the vertex grid.
type Vertex struct {
	Row, Col int
	Lat, Lon float64
}

// Vertices lays out an nrows x ncols sample grid over the raster. Sample rows
// span the raster with the middle sample on the mid row; sample columns span
// each row's swathe with the middle sample on the track. Both counts must be
// odd and at least 3.
//
// When the track leaves the raster part way down, the row where it ends is
// used as the mid row. Without any track the raster centre is used.
func Vertices(bl Boxline, cols int, lat, lon []float64, nrows, ncols int) ([]Vertex, error) {
	rows := len(bl)
	if nrows < 3 || ncols < 3 || nrows%2 == 0 || ncols%2 == 0 {
		return nil, fmt.Errorf("%w: %dx%d, want odd counts of at least 3", ErrVertexCount, nrows, ncols)
	}
	if rows < nrows || cols < ncols {
		return nil, fmt.Errorf("%w: %dx%d vertices for %dx%d raster", ErrVertexCount, nrows, ncols, rows, cols)
	}
	if len(lat) != rows*cols || len(lon) != rows*cols {
		return nil, fmt.Errorf("%w: %d latitudes and %d longitudes for %dx%d raster",
			ErrShape, len(lat), len(lon), rows, cols)
	}

	first, last := -1, -1
	for _, b := range bl {
		if b.NPoints == 0 {
			continue
		}
		if first < 0 {
			first = b.Row
		}
		last = b.Row
	}
	tracked := first >= 0

	midRow := rows / 2
	switch {
	case !tracked:
	case first != 0 && first != rows-1:
		midRow = first
	case last != 0 && last != rows-1:
		midRow = last
	}

	out := make([]Vertex, 0, nrows*ncols)
	for _, r := range asymmetricLinspace(0, rows-1, nrows, midRow) {
		b := bl[r]
		if b.Start < 0 {
			return nil, fmt.Errorf("%w: row %d", ErrEmptySwathe, r)
		}
		mid := (b.Start + b.End) / 2
		if tracked {
			mid = clamp(b.Bisection, b.Start, b.End)
		}
		for _, c := range asymmetricLinspace(b.Start, b.End, ncols, mid) {
			i := r*cols + c
			out = append(out, Vertex{Row: r, Col: c, Lat: lat[i], Lon: lon[i]})
		}
	}
	return out, nil
}

// asymmetricLinspace returns num integer positions from start to stop with
// the middle one at mid: num/2 evenly spaced points in [start, mid) followed
// by num/2+1 in [mid, stop]. Positions are truncated toward zero.
func asymmetricLinspace(start, stop, num, mid int) []int {
	k := num / 2
	front := make([]float64, k+1)
	floats.Span(front, float64(start), float64(mid))
	back := make([]float64, k+1)
	floats.Span(back, float64(mid), float64(stop))

	out := make([]int, 0, 2*k+1)
	for _, v := range front[:k] {
		out = append(out, truncate(v))
	}
	for _, v := range back {
		out = append(out, truncate(v))
	}
	return out
}

// truncate rounds toward zero, absorbing representation error just below an
// integer.
func truncate(v float64) int {
	const eps = 1e-9
	if v >= 0 {
		return int(math.Floor(v + eps))
	}
	return int(math.Ceil(v - eps))
}
