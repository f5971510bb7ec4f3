package grid

import (
	"fmt"

	"github.com/star/satangles/internal/viewangle"
)

// Output holds caller-owned rasters for one scene, row-major.
type Output struct {
	Rows, Cols int

	ViewZenith      []float32
	Azimuth         []float32
	SolarZenith     []float32
	SolarAzimuth    []float32
	RelativeAzimuth []float32
	Time            []float32
	Status          []int8

	Accumulator Accumulator
}

// NewOutput allocates rasters filled with NoData and zeroed accumulators.
func NewOutput(rows, cols int) *Output {
	n := rows * cols
	o := &Output{
		Rows:            rows,
		Cols:            cols,
		ViewZenith:      make([]float32, n),
		Azimuth:         make([]float32, n),
		SolarZenith:     make([]float32, n),
		SolarAzimuth:    make([]float32, n),
		RelativeAzimuth: make([]float32, n),
		Time:            make([]float32, n),
		Status:          make([]int8, n),
		Accumulator:     NewAccumulator(rows),
	}
	for _, r := range o.rasters() {
		for i := range r {
			r[i] = NoData
		}
	}
	for i := range o.Status {
		o.Status[i] = NoDataStatus
	}
	return o
}

func (o *Output) rasters() [][]float32 {
	return [][]float32{o.ViewZenith, o.Azimuth, o.SolarZenith, o.SolarAzimuth, o.RelativeAzimuth, o.Time}
}

// Validate checks that every raster and accumulator matches rows x cols.
func (o *Output) Validate(rows, cols int) error {
	if o.Rows != rows || o.Cols != cols {
		return fmt.Errorf("%w: output %dx%d, scene %dx%d", ErrDimensionMismatch, o.Rows, o.Cols, rows, cols)
	}
	n := rows * cols
	for i, r := range o.rasters() {
		if len(r) != n {
			return fmt.Errorf("%w: raster %d has %d cells, want %d", ErrDimensionMismatch, i, len(r), n)
		}
	}
	if len(o.Status) != n {
		return fmt.Errorf("%w: status has %d cells, want %d", ErrDimensionMismatch, len(o.Status), n)
	}
	if len(o.Accumulator.Sum) != rows || len(o.Accumulator.Count) != rows {
		return fmt.Errorf("%w: accumulator for %d rows, want %d", ErrDimensionMismatch, len(o.Accumulator.Count), rows)
	}
	return nil
}

// Pixel returns the stored solution at (row, col).
func (o *Output) Pixel(row, col int) Solution {
	i := row*o.Cols + col
	return Solution{
		Time:            float64(o.Time[i]),
		ViewZenith:      float64(o.ViewZenith[i]),
		Azimuth:         float64(o.Azimuth[i]),
		SolarZenith:     float64(o.SolarZenith[i]),
		SolarAzimuth:    float64(o.SolarAzimuth[i]),
		RelativeAzimuth: float64(o.RelativeAzimuth[i]),
		Status:          viewangle.Status(o.Status[i]),
	}
}

func (o *Output) set(i int, s Solution) {
	o.Time[i] = float32(s.Time)
	o.ViewZenith[i] = float32(s.ViewZenith)
	o.Azimuth[i] = float32(s.Azimuth)
	o.SolarZenith[i] = float32(s.SolarZenith)
	o.SolarAzimuth[i] = float32(s.SolarAzimuth)
	o.RelativeAzimuth[i] = float32(s.RelativeAzimuth)
	o.Status[i] = int8(s.Status)
}
