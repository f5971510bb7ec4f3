// Package grid runs the per-pixel angle solvers over a whole scene, writing
// satellite and solar angle rasters, per-pixel status codes and the row
// accumulators used to locate the satellite track.
package grid

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/star/satangles/internal/orbit"
	"github.com/star/satangles/internal/transform"
	"github.com/star/satangles/internal/viewangle"
)

// NoData fills raster cells a pass has not written.
const NoData = -999

// NoDataStatus fills status cells a pass has not written.
const NoDataStatus int8 = -1

var (
	// ErrDimensionMismatch is returned when scene inputs or outputs disagree
	// with the raster shape.
	ErrDimensionMismatch = errors.New("grid dimension mismatch")

	// ErrInvalidConfig is returned by NewDriver for unusable settings.
	ErrInvalidConfig = errors.New("invalid grid config")
)

// Config controls a Driver.
type Config struct {
	Workers int // goroutines per pass

	// PerPixelEphemeris evaluates the solar ephemeris at each pixel's own
	// acquisition time instead of once at the scene centre.
	PerPixelEphemeris bool
}

// Scene is the read-only input of a grid pass.
type Scene struct {
	Rows, Cols int
	Lat, Lon   []float64 // degrees, row-major, Rows*Cols

	Spheroid transform.Spheroid
	Elements orbit.Elements
	Model    *orbit.SatModel
	Track    orbit.Track

	Hours   float64 // UTC decimal hour at scene centre
	Century float64 // Julian century since J2000 at scene centre
}

// Validate checks the scene shape. Orbit constants are checked when the pass
// is prepared.
func (s *Scene) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("%w: %dx%d raster", ErrDimensionMismatch, s.Rows, s.Cols)
	}
	n := s.Rows * s.Cols
	if len(s.Lat) != n || len(s.Lon) != n {
		return fmt.Errorf("%w: %dx%d raster with %d latitudes and %d longitudes",
			ErrDimensionMismatch, s.Rows, s.Cols, len(s.Lat), len(s.Lon))
	}
	return nil
}

// Solution is the combined result for one pixel. Angles are degrees, Time is
// seconds from scene centre. A non-zero Status leaves every other field zero.
type Solution struct {
	Time            float64
	ViewZenith      float64
	Azimuth         float64
	SolarZenith     float64
	SolarAzimuth    float64
	RelativeAzimuth float64
	Status          viewangle.Status
}

// Summary describes a completed (or cancelled) pass.
type Summary struct {
	RunID       string
	Rows, Cols  int
	RowsDone    int
	ByStatus    map[viewangle.Status]int
	TrackCentre int // pixels added to row accumulators
	Duration    time.Duration
}

// Failed returns the number of pixels with a non-zero status.
func (s Summary) Failed() int {
	var n int
	for st, c := range s.ByStatus {
		if st != viewangle.StatusOK {
			n += c
		}
	}
	return n
}

// wrap180 reduces an angle in degrees to (-180, 180].
func wrap180(d float64) float64 {
	d = math.Mod(d, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

// relativeAzimuth returns sat - sun in degrees, wrapped to (-180, 180].
func relativeAzimuth(sat, sun float64) float64 {
	return wrap180(sat - sun)
}
