package grid

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/star/satangles/internal/orbit"
	"github.com/star/satangles/internal/transform"
	"github.com/star/satangles/internal/viewangle"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// syntheticScene builds a north-up lat/lon grid centred on 35S 149E with a
// descending sun-synchronous pass over the centre pixel.
func syntheticScene(tb testing.TB, rows, cols int, step float64) *Scene {
	tb.Helper()
	const clat, clon = -35.0, 149.0

	sph := transform.WGS84
	el := orbit.ElementsFromMeanMotion(98.2220, 14.57115829)
	m, err := orbit.SetSatModel(clon, clat, sph, el, orbit.Descending)
	require.NoError(tb, err)

	lat0 := clat + step*float64(rows/2)
	lon0 := clon - step*float64(cols/2)
	lat := make([]float64, rows*cols)
	lon := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lat[r*cols+c] = lat0 - step*float64(r)
			lon[r*cols+c] = lon0 + step*float64(c)
		}
	}

	south := lat0 - step*float64(rows-1)
	tr, err := orbit.SetTimes(south-1, lat0+1, orbit.DefaultTrackPoints, sph, el, m)
	require.NoError(tb, err)

	return &Scene{
		Rows: rows, Cols: cols,
		Lat: lat, Lon: lon,
		Spheroid: sph,
		Elements: el,
		Model:    m,
		Track:    tr,
		Hours:    23.8,
		Century:  0.1343,
	}
}

func newDriver(t testing.TB, cfg Config) *Driver {
	t.Helper()
	d, err := NewDriver(cfg, testLogger())
	require.NoError(t, err)
	return d
}

func TestIsTrackEdge(t *testing.T) {
	const (
		te = viewangle.TimeEpsilon
		ve = viewangle.ViewEpsilon
	)
	tests := []struct {
		name           string
		time, view, az float64
		want           bool
	}{
		{"clear edge", 12.5, 0, 0, true},
		{"negative time", -12.5, 0, 0, true},
		{"time at threshold", te, 0, 0, false},
		{"time just above threshold", math.Nextafter(te, 1), 0, 0, true},
		{"time just below threshold", math.Nextafter(te, 0), 0, 0, false},
		{"scene centre", 0, 0, 0, false},
		{"view at threshold", 5, ve, 0, false},
		{"view just inside", 5, math.Nextafter(ve, 0), 0, true},
		{"negative view just inside", 5, -math.Nextafter(ve, 0), 0, true},
		{"azimuth at threshold", 5, 0, ve, false},
		{"azimuth just inside", 5, 0, math.Nextafter(ve, 0), true},
		{"azimuth just outside", 5, 0, math.Nextafter(ve, 1), false},
		{"off nadir", 5, 0.1, 4.7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTrackEdge(tt.time, tt.view, tt.az))
		})
	}
}

func TestRelativeAzimuth(t *testing.T) {
	tests := []struct{ sat, sun, want float64 }{
		{100, 40, 60},
		{10, 350, 20},
		{350, 10, -20},
		{270, 90, 180},
		{90, 270, 180},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, relativeAzimuth(tt.sat, tt.sun), 1e-12, "sat=%v sun=%v", tt.sat, tt.sun)
	}
}

func TestNewOutput(t *testing.T) {
	out := NewOutput(3, 4)
	require.NoError(t, out.Validate(3, 4))

	for _, r := range out.rasters() {
		require.Len(t, r, 12)
		for _, v := range r {
			require.Equal(t, float32(NoData), v)
		}
	}
	for _, s := range out.Status {
		require.Equal(t, NoDataStatus, s)
	}
	assert.Equal(t, []int{0, 0, 0}, out.Accumulator.Count)

	assert.ErrorIs(t, out.Validate(4, 3), ErrDimensionMismatch)
	out.Time = out.Time[:5]
	assert.ErrorIs(t, out.Validate(3, 4), ErrDimensionMismatch)
}

func TestNewDriverRejectsZeroWorkers(t *testing.T) {
	_, err := NewDriver(Config{Workers: 0}, testLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunSyntheticScene(t *testing.T) {
	const rows, cols = 21, 31
	scene := syntheticScene(t, rows, cols, 0.02)
	out := NewOutput(rows, cols)

	sum, err := newDriver(t, Config{Workers: 4}).Run(context.Background(), scene, out)
	require.NoError(t, err)

	_, err = uuid.Parse(sum.RunID)
	assert.NoError(t, err)
	assert.Equal(t, rows, sum.RowsDone)
	assert.Equal(t, rows*cols, sum.ByStatus[viewangle.StatusOK])
	assert.Zero(t, sum.Failed())

	// The scene centre pixel is at nadir at time zero.
	centre := out.Pixel(rows/2, cols/2)
	assert.Equal(t, viewangle.StatusOK, centre.Status)
	assert.Zero(t, centre.ViewZenith)
	assert.Zero(t, centre.Azimuth)
	assert.InDelta(t, 0, centre.Time, 1e-5)

	// Every row but the centre one has track pixels; the centre row's only
	// nadir pixel is at time zero and is not counted.
	total := 0
	prevMean := math.Inf(1)
	for r := 0; r < rows; r++ {
		n := out.Accumulator.Count[r]
		total += n
		if r == rows/2 {
			assert.Zero(t, n, "centre row")
			continue
		}
		require.GreaterOrEqual(t, n, 1, "row %d", r)
		require.LessOrEqual(t, n, 2, "row %d", r)

		// A south-south-west track drifts west going down the raster.
		mean := out.Accumulator.Sum[r] / float64(n)
		assert.LessOrEqual(t, mean, prevMean, "row %d", r)
		prevMean = mean
	}
	assert.Equal(t, total, sum.TrackCentre)

	for i := range out.Status {
		require.Equal(t, int8(0), out.Status[i])
		require.GreaterOrEqual(t, out.ViewZenith[i], float32(0))
		require.Less(t, out.ViewZenith[i], float32(5))
		require.GreaterOrEqual(t, out.SolarAzimuth[i], float32(0))
		require.Less(t, out.SolarAzimuth[i], float32(360))
		require.Greater(t, out.RelativeAzimuth[i], float32(-180))
		require.LessOrEqual(t, out.RelativeAzimuth[i], float32(180))
	}

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "satangles_pixels_total", "satangles_rows_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}

func TestRunIdempotent(t *testing.T) {
	scene := syntheticScene(t, 9, 13, 0.03)

	first := NewOutput(scene.Rows, scene.Cols)
	second := NewOutput(scene.Rows, scene.Cols)
	single := NewOutput(scene.Rows, scene.Cols)

	d := newDriver(t, Config{Workers: 3})
	_, err := d.Run(context.Background(), scene, first)
	require.NoError(t, err)
	_, err = d.Run(context.Background(), scene, second)
	require.NoError(t, err)
	_, err = newDriver(t, Config{Workers: 1}).Run(context.Background(), scene, single)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second pass differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, single); diff != "" {
		t.Errorf("single-worker pass differs (-pool +single):\n%s", diff)
	}

	// Re-running into the same output does not double the accumulators.
	_, err = d.Run(context.Background(), scene, first)
	require.NoError(t, err)
	if diff := cmp.Diff(second.Accumulator, first.Accumulator); diff != "" {
		t.Errorf("accumulators changed on re-run:\n%s", diff)
	}
}

func TestRunFailedPixelsAreZeroed(t *testing.T) {
	scene := syntheticScene(t, 5, 7, 0.02)
	// Invalid latitude and a pixel far north of the track span.
	scene.Lat[3] = 95
	scene.Lat[10] = -20

	out := NewOutput(scene.Rows, scene.Cols)
	sum, err := newDriver(t, Config{Workers: 2}).Run(context.Background(), scene, out)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.ByStatus[viewangle.StatusGeodetic])
	assert.Equal(t, 1, sum.ByStatus[viewangle.StatusNoInterval])
	assert.Equal(t, 2, sum.Failed())
	assert.Equal(t, scene.Rows*scene.Cols-2, sum.ByStatus[viewangle.StatusOK])

	assert.Equal(t, Solution{Status: viewangle.StatusGeodetic}, out.Pixel(0, 3))
	assert.Equal(t, Solution{Status: viewangle.StatusNoInterval}, out.Pixel(1, 3))
	assert.Equal(t, viewangle.StatusOK, out.Pixel(1, 4).Status)
}

func TestRunCancelled(t *testing.T) {
	scene := syntheticScene(t, 9, 9, 0.02)
	out := NewOutput(scene.Rows, scene.Cols)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newDriver(t, Config{Workers: 2}).Run(ctx, scene, out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.RowsDone)
	for _, s := range out.Status {
		require.Equal(t, NoDataStatus, s)
	}
}

func TestRunDimensionMismatch(t *testing.T) {
	scene := syntheticScene(t, 4, 4, 0.02)
	d := newDriver(t, Config{Workers: 1})

	_, err := d.Run(context.Background(), scene, NewOutput(4, 5))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	bad := *scene
	bad.Lon = bad.Lon[:15]
	_, err = d.Run(context.Background(), &bad, NewOutput(4, 4))
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	bad = *scene
	bad.Track = orbit.Track{bad.Track[1], bad.Track[0]}
	_, err = d.Run(context.Background(), &bad, NewOutput(4, 4))
	assert.True(t, errors.Is(err, orbit.ErrTrackNotMonotonic), "error = %v", err)
}

func TestPerPixelEphemeris(t *testing.T) {
	scene := syntheticScene(t, 41, 5, 0.05)

	shared, err := newDriver(t, Config{Workers: 1}).Prepare(scene)
	require.NoError(t, err)
	perPixel, err := newDriver(t, Config{Workers: 1, PerPixelEphemeris: true}).Prepare(scene)
	require.NoError(t, err)

	// At the centre the pixel time is zero and both forms agree.
	a, b := shared.Pixel(20, 2), perPixel.Pixel(20, 2)
	assert.InDelta(t, a.SolarZenith, b.SolarZenith, 1e-6)
	assert.InDelta(t, a.SolarAzimuth, b.SolarAzimuth, 1e-6)

	// A degree north the pixel is seen about sixteen seconds earlier.
	a, b = shared.Pixel(0, 2), perPixel.Pixel(0, 2)
	require.Greater(t, math.Abs(a.Time), 10.0)
	assert.Greater(t, math.Abs(a.SolarAzimuth-b.SolarAzimuth), 1e-3)
	assert.Less(t, math.Abs(a.SolarZenith-b.SolarZenith), 0.2)
	assert.Equal(t, a.ViewZenith, b.ViewZenith)
}

func TestComputeRowResetsAccumulator(t *testing.T) {
	scene := syntheticScene(t, 5, 11, 0.02)
	p, err := newDriver(t, Config{Workers: 1}).Prepare(scene)
	require.NoError(t, err)

	out := NewOutput(scene.Rows, scene.Cols)
	first := p.ComputeRow(0, out)
	second := p.ComputeRow(0, out)

	assert.Equal(t, first, second)
	assert.Equal(t, first.TrackCentre, out.Accumulator.Count[0])
	assert.Equal(t, scene.Cols, first.ByStatus[viewangle.StatusOK])
}

func TestChunkRows(t *testing.T) {
	assert.Equal(t, 1, chunkRows(3, 8))
	assert.Equal(t, 25, chunkRows(1000, 10))
}

func BenchmarkRun(b *testing.B) {
	scene := syntheticScene(b, 64, 64, 0.005)
	out := NewOutput(scene.Rows, scene.Cols)
	d, err := NewDriver(Config{Workers: 4}, slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := d.Run(context.Background(), scene, out); err != nil {
			b.Fatal(err)
		}
	}
}
