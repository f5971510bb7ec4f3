package grid

import (
	"math"

	"github.com/star/satangles/internal/viewangle"
)

// Accumulator collects, per row, the column indices (0-based) and count of
// pixels flagged by IsTrackEdge. Each row is written by exactly one worker.
type Accumulator struct {
	Sum   []float64
	Count []int
}

// NewAccumulator returns zeroed accumulators for rows rows.
func NewAccumulator(rows int) Accumulator {
	return Accumulator{
		Sum:   make([]float64, rows),
		Count: make([]int, rows),
	}
}

func (a Accumulator) add(row, col int) {
	a.Sum[row] += float64(col)
	a.Count[row]++
}

func (a Accumulator) resetRow(row int) {
	a.Sum[row] = 0
	a.Count[row] = 0
}

// IsTrackEdge reports whether a solver result is a converged, non-central time
// with a degenerate (zero) view/azimuth pair. time is seconds, view and
// azimuth radians.
//
// The pair is zero when the solver places the pixel on the track, so flagged
// pixels trace the satellite track through the raster. The scene centre
// pixel itself (time ~0) is not flagged.
func IsTrackEdge(time, view, azimuth float64) bool {
	return math.Abs(time) > viewangle.TimeEpsilon &&
		math.Abs(view) < viewangle.ViewEpsilon &&
		math.Abs(azimuth) < viewangle.ViewEpsilon
}
