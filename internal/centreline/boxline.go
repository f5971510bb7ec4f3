package centreline

import (
	"fmt"

	"github.com/star/satangles/internal/grid"
	"github.com/star/satangles/internal/viewangle"
)

// DefaultMaxViewAngle bounds the swathe, in degrees.
const DefaultMaxViewAngle = 9.0

// BoxRow describes the track bisection and swathe of one row. Start and End
// are -1 when no pixel in the row is inside the maximum view angle.
type BoxRow struct {
	Row        int
	Bisection  int // centreline column
	NPoints    int
	Start, End int
}

// Boxline holds one BoxRow per raster row.
type Boxline []BoxRow

// NewBoxline finds, for each row, the first and last columns whose view
// zenith is at most maxAngle degrees. Pixels with a failed solve are ignored.
func NewBoxline(out *grid.Output, cl Centreline, maxAngle float64) (Boxline, error) {
	if len(cl) != out.Rows {
		return nil, fmt.Errorf("%w: centreline has %d rows, output %d", ErrShape, len(cl), out.Rows)
	}
	if len(out.ViewZenith) != out.Rows*out.Cols || len(out.Status) != out.Rows*out.Cols {
		return nil, fmt.Errorf("%w: output rasters for %dx%d", ErrShape, out.Rows, out.Cols)
	}

	bl := make(Boxline, out.Rows)
	for r := range bl {
		start, end := swatheEdges(out, r, maxAngle)
		bl[r] = BoxRow{
			Row:       r,
			Bisection: cl[r].Col,
			NPoints:   cl[r].NPixels,
			Start:     start,
			End:       end,
		}
	}
	return bl, nil
}

func swatheEdges(out *grid.Output, row int, maxAngle float64) (int, int) {
	start, end := -1, -1
	base := row * out.Cols
	for c := 0; c < out.Cols; c++ {
		i := base + c
		if out.Status[i] != int8(viewangle.StatusOK) || float64(out.ViewZenith[i]) > maxAngle {
			continue
		}
		if start < 0 {
			start = c
		}
		end = c
	}
	return start, end
}
