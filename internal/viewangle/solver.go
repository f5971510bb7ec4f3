// Package viewangle finds, for a ground pixel, the time at which the satellite
// passes it and the resulting view zenith and azimuth.
//
// The search runs in the orbit frame: the pixel is rotated onto the orbit
// plane's pole and its along-track angle compared with the satellite's
// argument of latitude along the discretized ground track.
package viewangle

import (
	"fmt"
	"math"

	"github.com/star/satangles/internal/orbit"
	"github.com/star/satangles/internal/transform"
)

const (
	d2r = math.Pi / 180.0
	r2d = 180.0 / math.Pi

	// ViewEpsilon bounds view zenith and azimuth values treated as zero (radians).
	ViewEpsilon = 1e-7
	// TimeEpsilon bounds track times treated as the scene centre (seconds).
	TimeEpsilon = 1e-5

	maxIterations = 60
	residualTol   = 1e-12
	timeTol       = 1e-9
)

// Status is the per-pixel outcome of a solve.
type Status int8

const (
	StatusOK         Status = 0
	StatusGeodetic   Status = 1 // latitude could not be mapped into the orbit frame
	StatusNoInterval Status = 2 // no track interval observes the pixel
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusGeodetic:
		return "geodetic"
	case StatusNoInterval:
		return "no_interval"
	default:
		return fmt.Sprintf("Status(%d)", int8(s))
	}
}

// Result is the solver output for one pixel. Angles are radians. When Status
// is not StatusOK every other field is zero.
type Result struct {
	Time       float64 // seconds from scene centre
	ViewZenith float64
	Azimuth    float64 // clockwise from north, [0, 2π)
	Heading    float64 // ground-track heading at Time
	Status     Status
}

// LonTolerance returns the longitude search tolerance in radians for a pixel
// spanning extentDeg degrees of longitude: half the extent plus 20%.
func LonTolerance(extentDeg float64) float64 {
	return extentDeg / 2 * d2r * 1.2
}

// Solver matches pixels against one scene's ground track. It only reads the
// scene constants and is safe for concurrent use.
type Solver struct {
	spheroid *transform.Spheroid
	elements *orbit.Elements
	model    *orbit.SatModel
	track    orbit.Track

	sinI, cosI float64
	incDeg     float64
}

// NewSolver validates the scene constants and returns a Solver over them.
func NewSolver(s *transform.Spheroid, el *orbit.Elements, m *orbit.SatModel, tr orbit.Track) (*Solver, error) {
	if s == nil || el == nil || m == nil {
		return nil, fmt.Errorf("view angle solver: missing scene constants")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("view angle solver: %w", err)
	}
	if err := el.Validate(); err != nil {
		return nil, fmt.Errorf("view angle solver: %w", err)
	}
	if err := tr.Validate(); err != nil {
		return nil, fmt.Errorf("view angle solver: %w", err)
	}

	inc := el.Inclination * d2r
	return &Solver{
		spheroid: s,
		elements: el,
		model:    m,
		track:    tr,
		sinI:     math.Sin(inc),
		cosI:     math.Cos(inc),
		incDeg:   el.Inclination,
	}, nil
}

// Track returns the ground track the solver searches.
func (s *Solver) Track() orbit.Track { return s.track }

// orbitFrame returns the pixel's along-track angle and cross-track distance
// (radians) in the orbit frame at time t.
func (s *Solver) orbitFrame(orbitLat, lonRad, t float64) (along, cross float64) {
	lamRel := (lonRad - s.model.Lam0 + s.spheroid.RotationRate*t) * r2d
	theta, phi := transform.RotatePole(90-orbitLat*r2d, lamRel+90, s.incDeg, 0)
	return (phi - 90) * d2r, math.Abs(theta-90) * d2r
}

// residual is the wrapped difference between the pixel's along-track angle and
// the satellite's argument of latitude at time t.
func (s *Solver) residual(orbitLat, lonRad, t float64) float64 {
	along, _ := s.orbitFrame(orbitLat, lonRad, t)
	return orbit.WrapPi(along - s.track.At(t).Mj)
}

// Solve finds the track time observing the pixel at (latDeg, lonDeg) and the
// view geometry at that time. lonTol is the longitude tolerance in radians,
// normally LonTolerance of the pixel's longitude extent.
func (s *Solver) Solve(latDeg, lonDeg, lonTol float64) Result {
	orbitLat, err := orbit.GeodeticToOrbitLatitude(latDeg, *s.elements, *s.spheroid)
	if err != nil {
		return Result{Status: StatusGeodetic}
	}
	lon := lonDeg * d2r

	t, ok := s.findTime(orbitLat, lon, lonTol)
	if !ok {
		return Result{Status: StatusNoInterval}
	}

	at := s.track.At(t)
	res := Result{Time: t, Heading: at.Beta}

	_, cross := s.orbitFrame(orbitLat, lon, t)
	if cross <= lonTol*math.Cos(orbitLat) {
		return res
	}

	satLat, satLon := s.model.SubSatellite(at.Mj, t, *s.elements, *s.spheroid)
	cosLat := math.Cos(satLat)
	sat := [3]float64{
		at.Rho * cosLat * math.Cos(satLon),
		at.Rho * cosLat * math.Sin(satLon),
		at.Rho * math.Sin(satLat),
	}

	look := transform.NewObserver(*s.spheroid, latDeg, lonDeg, 0).Look(sat)
	if look.Zenith < ViewEpsilon {
		return res
	}
	res.ViewZenith = look.Zenith
	res.Azimuth = look.Azimuth
	return res
}

// findTime locates the root of the residual over the track. Sample pairs
// whose residuals differ by more than π straddle the wrap, not a root.
func (s *Solver) findTime(orbitLat, lon, lonTol float64) (float64, bool) {
	n := len(s.track)
	f := make([]float64, n)
	for j, p := range s.track {
		f[j] = s.residual(orbitLat, lon, p.T)
		if f[j] == 0 {
			return p.T, true
		}
	}

	for j := 0; j+1 < n; j++ {
		if math.Signbit(f[j]) == math.Signbit(f[j+1]) || math.Abs(f[j]-f[j+1]) > math.Pi {
			continue
		}
		return s.refine(orbitLat, lon, s.track[j].T, s.track[j+1].T, f[j], f[j+1]), true
	}

	// The pixel may sit just beyond either end of the track.
	best, bestF := 0.0, math.Inf(1)
	for _, j := range []int{0, n - 1} {
		if a := math.Abs(f[j]); a <= lonTol && a < bestF {
			best, bestF = s.track[j].T, a
		}
	}
	return best, !math.IsInf(bestF, 1)
}

// refine applies the Illinois variant of regula falsi on [a, b].
func (s *Solver) refine(orbitLat, lon, a, b, fa, fb float64) float64 {
	side := 0
	c := a
	for i := 0; i < maxIterations; i++ {
		c = (a*fb - b*fa) / (fb - fa)
		fc := s.residual(orbitLat, lon, c)
		if math.Abs(fc) < residualTol || math.Abs(b-a) < timeTol {
			break
		}

		if math.Signbit(fc) == math.Signbit(fb) {
			b, fb = c, fc
			if side == -1 {
				fa /= 2
			}
			side = -1
		} else {
			a, fa = c, fc
			if side == 1 {
				fb /= 2
			}
			side = 1
		}
	}
	return c
}
