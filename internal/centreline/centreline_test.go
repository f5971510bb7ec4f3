package centreline

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/satangles/internal/grid"
	"github.com/star/satangles/internal/orbit"
	"github.com/star/satangles/internal/transform"
	"github.com/star/satangles/internal/viewangle"
)

// coords returns row-major coordinates with lat = row and lon = col/10.
func coords(rows, cols int) (lat, lon []float64) {
	lat = make([]float64, rows*cols)
	lon = make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lat[r*cols+c] = float64(r)
			lon[r*cols+c] = float64(c) / 10
		}
	}
	return lat, lon
}

func TestNew(t *testing.T) {
	acc := grid.Accumulator{
		Sum:   []float64{0, 9, 5, 0, 0, 15},
		Count: []int{0, 2, 1, 0, 0, 2},
	}
	lat, lon := coords(6, 10)

	cl, err := New(acc, 6, 10, lat, lon)
	require.NoError(t, err)
	require.Len(t, cl, 6)

	var cols []int
	for _, p := range cl {
		cols = append(cols, p.Col)
	}
	// Row 0 borrows row 1's mean, row 3 borrows row 2, row 4 borrows the
	// unfilled row 3. Halves round to even.
	assert.Equal(t, []int{4, 4, 5, 5, 0, 8}, cols)

	assert.Equal(t, Point{Row: 1, Col: 4, NPixels: 2, Lat: 1, Lon: 0.4}, cl[1])
	assert.Equal(t, 0, cl[3].NPixels)
	assert.Equal(t, 3, cl.Tracked())
	assert.InDelta(t, 26.0/6, cl.MeanColumn(), 1e-12)
}

func TestNewSingleRow(t *testing.T) {
	lat, lon := coords(1, 4)
	cl, err := New(grid.Accumulator{Sum: []float64{0}, Count: []int{0}}, 1, 4, lat, lon)
	require.NoError(t, err)
	assert.Equal(t, 0, cl[0].Col)
	assert.Zero(t, cl.Tracked())
}

func TestNewShapeErrors(t *testing.T) {
	lat, lon := coords(3, 4)
	acc := grid.NewAccumulator(3)

	_, err := New(acc, 4, 4, lat, lon)
	assert.ErrorIs(t, err, ErrShape)
	_, err = New(acc, 3, 4, lat[:5], lon)
	assert.ErrorIs(t, err, ErrShape)
	_, err = New(acc, 0, 4, nil, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestNewBoxline(t *testing.T) {
	out := grid.NewOutput(3, 5)
	views := []float32{
		12, 8, 0, 8, 12,
		0, 9, 9.5, 1, 20,
		10, 11, 12, 13, 14,
	}
	copy(out.ViewZenith, views)
	for i := range out.Status {
		out.Status[i] = int8(viewangle.StatusOK)
	}
	out.Status[5] = int8(viewangle.StatusNoInterval)

	cl := Centreline{{Row: 0, Col: 2, NPixels: 1}, {Row: 1, Col: 3}, {Row: 2, Col: 3}}
	bl, err := NewBoxline(out, cl, DefaultMaxViewAngle)
	require.NoError(t, err)

	want := Boxline{
		{Row: 0, Bisection: 2, NPoints: 1, Start: 1, End: 3},
		{Row: 1, Bisection: 3, NPoints: 0, Start: 1, End: 3},
		{Row: 2, Bisection: 3, NPoints: 0, Start: -1, End: -1},
	}
	assert.Equal(t, want, bl)

	_, err = NewBoxline(out, cl[:2], DefaultMaxViewAngle)
	assert.ErrorIs(t, err, ErrShape)
}

func TestAsymmetricLinspace(t *testing.T) {
	tests := []struct {
		start, stop, num, mid int
		want                  []int
	}{
		{10, 20, 5, 18, []int{10, 14, 18, 19, 20}},
		{0, 8, 3, 4, []int{0, 4, 8}},
		{0, 10, 3, 0, []int{0, 0, 10}},
		{2, 2, 3, 2, []int{2, 2, 2}},
		{0, 99, 7, 30, []int{0, 10, 20, 30, 53, 76, 99}},
		{0, 10, 5, 3, []int{0, 1, 3, 6, 10}},
	}
	for _, tt := range tests {
		got := asymmetricLinspace(tt.start, tt.stop, tt.num, tt.mid)
		assert.Equal(t, tt.want, got, "asymmetricLinspace(%d, %d, %d, %d)", tt.start, tt.stop, tt.num, tt.mid)
	}
}

func boxline(rows int, tracked func(r int) bool) Boxline {
	bl := make(Boxline, rows)
	for r := range bl {
		bl[r] = BoxRow{Row: r, Bisection: 6, Start: 1, End: 9}
		if tracked(r) {
			bl[r].NPoints = 1
		}
	}
	return bl
}

func TestVertices(t *testing.T) {
	const rows, cols = 9, 11
	lat, lon := coords(rows, cols)

	tests := []struct {
		name     string
		tracked  func(int) bool
		wantRows []int
		wantCols []int
	}{
		{"full track", func(int) bool { return true }, []int{0, 4, 8}, []int{1, 6, 9}},
		{"track ends in raster", func(r int) bool { return r <= 5 }, []int{0, 5, 8}, []int{1, 6, 9}},
		{"track starts in raster", func(r int) bool { return r >= 2 }, []int{0, 2, 8}, []int{1, 6, 9}},
		{"no track", func(int) bool { return false }, []int{0, 4, 8}, []int{1, 5, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Vertices(boxline(rows, tt.tracked), cols, lat, lon, 3, 3)
			require.NoError(t, err)
			require.Len(t, v, 9)
			for i, vx := range v {
				assert.Equal(t, tt.wantRows[i/3], vx.Row, "vertex %d row", i)
				assert.Equal(t, tt.wantCols[i%3], vx.Col, "vertex %d col", i)
				assert.Equal(t, float64(vx.Row), vx.Lat)
				assert.InDelta(t, float64(vx.Col)/10, vx.Lon, 1e-12)
			}
		})
	}
}

func TestVerticesErrors(t *testing.T) {
	lat, lon := coords(9, 11)
	all := func(int) bool { return true }

	tests := []struct {
		name         string
		bl           Boxline
		nrows, ncols int
		want         error
	}{
		{"even columns", boxline(9, all), 3, 4, ErrVertexCount},
		{"too few rows", boxline(9, all), 1, 3, ErrVertexCount},
		{"more vertices than rows", boxline(9, all), 11, 3, ErrVertexCount},
		{"coordinates mismatch", boxline(8, all), 3, 3, ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Vertices(tt.bl, 11, lat, lon, tt.nrows, tt.ncols)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	bl := boxline(9, all)
	bl[4].Start, bl[4].End = -1, -1
	_, err := Vertices(bl, 11, lat, lon, 3, 3)
	assert.ErrorIs(t, err, ErrEmptySwathe)
}

func TestFromGridPass(t *testing.T) {
	const (
		rows, cols = 21, 31
		step       = 0.02
		clat, clon = -35.0, 149.0
	)
	sph := transform.WGS84
	el := orbit.ElementsFromMeanMotion(98.2220, 14.57115829)
	m, err := orbit.SetSatModel(clon, clat, sph, el, orbit.Descending)
	require.NoError(t, err)
	tr, err := orbit.SetTimes(clat-1.5, clat+1.5, orbit.DefaultTrackPoints, sph, el, m)
	require.NoError(t, err)

	lat := make([]float64, rows*cols)
	lon := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lat[r*cols+c] = clat + step*float64(rows/2-r)
			lon[r*cols+c] = clon + step*float64(c-cols/2)
		}
	}
	scene := &grid.Scene{
		Rows: rows, Cols: cols, Lat: lat, Lon: lon,
		Spheroid: sph, Elements: el, Model: m, Track: tr,
		Hours: 23.8, Century: 0.1343,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	d, err := grid.NewDriver(grid.Config{Workers: 2}, logger)
	require.NoError(t, err)
	out := grid.NewOutput(rows, cols)
	_, err = d.Run(context.Background(), scene, out)
	require.NoError(t, err)

	cl, err := New(out.Accumulator, rows, cols, lat, lon)
	require.NoError(t, err)
	assert.Equal(t, rows-1, cl.Tracked())

	// The centre row's only nadir pixel is the scene centre, which the
	// accumulators skip, so it borrows the row above.
	assert.Zero(t, cl[rows/2].NPixels)
	assert.Equal(t, cl[rows/2-1].Col, cl[rows/2].Col)
	for r := 1; r < rows; r++ {
		assert.LessOrEqual(t, cl[r].Col, cl[r-1].Col, "track drifts west going south")
	}

	bl, err := NewBoxline(out, cl, DefaultMaxViewAngle)
	require.NoError(t, err)
	for _, b := range bl {
		assert.Equal(t, 0, b.Start)
		assert.Equal(t, cols-1, b.End)
	}

	v, err := Vertices(bl, cols, lat, lon, 3, 3)
	require.NoError(t, err)
	require.Len(t, v, 9)
	assert.Equal(t, rows/2, v[4].Row)
	assert.Equal(t, cl[rows/2].Col, v[4].Col)
}
