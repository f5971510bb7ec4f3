// Package centreline turns the row accumulators and view-angle raster of a
// grid pass into the satellite track products: the centreline (one track
// column per row), the boxline (track column plus swathe edges per row) and a
// coarse vertex grid laid out around the track.
package centreline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/star/satangles/internal/grid"
)

var (
	// ErrShape is returned when inputs disagree with the raster shape.
	ErrShape = errors.New("centreline shape mismatch")

	// ErrVertexCount is returned for unusable vertex grid sizes.
	ErrVertexCount = errors.New("invalid vertex count")

	// ErrEmptySwathe is returned when a sampled row has no pixel inside the
	// maximum view angle.
	ErrEmptySwathe = errors.New("row has no swathe")
)

// Point is the track position in one row.
type Point struct {
	Row, Col int
	NPixels  int // track pixels found in the row; 0 means Col was filled in
	Lat, Lon float64
}

// Centreline holds one Point per raster row.
type Centreline []Point

// New builds the centreline from a pass's accumulators. Rows with two or more
// track pixels use their mean column. A row with none takes the previous
// row's value, and row 0 takes row 1's; fills are not chained. lat and lon
// are the scene's row-major pixel coordinates.
func New(acc grid.Accumulator, rows, cols int, lat, lon []float64) (Centreline, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d raster", ErrShape, rows, cols)
	}
	if len(acc.Sum) != rows || len(acc.Count) != rows {
		return nil, fmt.Errorf("%w: accumulator for %d rows, want %d", ErrShape, len(acc.Count), rows)
	}
	if len(lat) != rows*cols || len(lon) != rows*cols {
		return nil, fmt.Errorf("%w: %d latitudes and %d longitudes for %dx%d raster",
			ErrShape, len(lat), len(lon), rows, cols)
	}

	x := make([]float64, rows)
	copy(x, acc.Sum)
	for r, n := range acc.Count {
		if n >= 2 {
			x[r] /= float64(n)
		}
	}

	filled := make([]float64, rows)
	copy(filled, x)
	for r, n := range acc.Count {
		if n > 0 {
			continue
		}
		switch {
		case r > 0:
			filled[r] = x[r-1]
		case rows > 1:
			filled[r] = x[1]
		}
	}

	cl := make(Centreline, rows)
	for r := range cl {
		c := clamp(int(math.RoundToEven(filled[r])), 0, cols-1)
		i := r*cols + c
		cl[r] = Point{
			Row:     r,
			Col:     c,
			NPixels: acc.Count[r],
			Lat:     lat[i],
			Lon:     lon[i],
		}
	}
	return cl, nil
}

// Tracked returns the number of rows with at least one track pixel.
func (c Centreline) Tracked() int {
	var n int
	for _, p := range c {
		if p.NPixels > 0 {
			n++
		}
	}
	return n
}

// MeanColumn returns the average track column over all rows.
func (c Centreline) MeanColumn() float64 {
	if len(c) == 0 {
		return 0
	}
	cols := make([]float64, len(c))
	for i, p := range c {
		cols[i] = float64(p.Col)
	}
	return floats.Sum(cols) / float64(len(cols))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
