package orbit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/star/satangles/internal/transform"
	"gonum.org/v1/gonum/floats"
)

// DefaultTrackPoints is the number of ground-track samples used per scene.
const DefaultTrackPoints = 12

var (
	// ErrTrackNotMonotonic is returned for tracks that are too short or whose
	// sample times do not strictly increase.
	ErrTrackNotMonotonic = errors.New("ground track not monotonic in time")

	// ErrEquatorialSpan is returned by SetTimes when the orbit is equatorial
	// and latitude cannot fix a time span.
	ErrEquatorialSpan = errors.New("latitude span undefined for equatorial orbit")
)

// TrackPoint is one ground-track sample. Angles are radians, distances metres.
type TrackPoint struct {
	T    float64 // seconds from scene centre
	Rho  float64 // satellite geocentric radius
	PhiP float64 // satellite geocentric latitude
	Lam  float64 // sub-satellite longitude
	Beta float64 // ground-track heading, clockwise from north
	Hxy  float64 // satellite distance from the Earth's axis
	Mj   float64 // argument of latitude
	Skew float64 // ground heading minus inertial heading
}

// Track is a time-ordered ground track.
type Track []TrackPoint

// Validate checks that the track has at least two finite samples in strictly
// increasing time.
func (tr Track) Validate() error {
	if len(tr) < 2 {
		return fmt.Errorf("%w: %d samples", ErrTrackNotMonotonic, len(tr))
	}
	for i, p := range tr {
		if math.IsNaN(p.T) || math.IsInf(p.T, 0) || math.IsNaN(p.Mj) || math.IsNaN(p.Rho) {
			return fmt.Errorf("%w: sample %d not finite", ErrTrackNotMonotonic, i)
		}
		if i > 0 && !(p.T > tr[i-1].T) {
			return fmt.Errorf("%w: sample %d at %v s follows %v s", ErrTrackNotMonotonic, i, p.T, tr[i-1].T)
		}
	}
	return nil
}

// Span returns the first and last sample times.
func (tr Track) Span() (float64, float64) {
	return tr[0].T, tr[len(tr)-1].T
}

// At linearly interpolates the track at time t, clamping to the end samples.
// Heading is interpolated along the shorter arc.
func (tr Track) At(t float64) TrackPoint {
	if t <= tr[0].T {
		return tr[0]
	}
	last := len(tr) - 1
	if t >= tr[last].T {
		return tr[last]
	}

	j := sort.Search(len(tr), func(i int) bool { return tr[i].T > t }) - 1
	a, b := tr[j], tr[j+1]
	f := (t - a.T) / (b.T - a.T)
	lerp := func(x, y float64) float64 { return x + f*(y-x) }
	arc := func(x, y float64) float64 { return WrapPi(x + f*WrapPi(y-x)) }

	return TrackPoint{
		T:    t,
		Rho:  lerp(a.Rho, b.Rho),
		PhiP: lerp(a.PhiP, b.PhiP),
		Lam:  arc(a.Lam, b.Lam),
		Beta: arc(a.Beta, b.Beta),
		Hxy:  lerp(a.Hxy, b.Hxy),
		Mj:   lerp(a.Mj, b.Mj),
		Skew: lerp(a.Skew, b.Skew),
	}
}

// SetTimes samples the ground track over the time the satellite takes to move
// between two geodetic latitudes (degrees) on the branch of the orbit chosen by
// SetSatModel. Callers normally widen the latitude range by a buffer so that
// pixels at the scene edges fall inside the track.
func SetTimes(minLat, maxLat float64, n int, s transform.Spheroid, el Elements, m *SatModel) (Track, error) {
	inc := el.Inclination * d2r
	if math.Abs(math.Sin(inc)) < equatorialSin {
		return nil, ErrEquatorialSpan
	}

	t1, err := branchTime(minLat, s, el, m)
	if err != nil {
		return nil, fmt.Errorf("track start: %w", err)
	}
	t2, err := branchTime(maxLat, s, el, m)
	if err != nil {
		return nil, fmt.Errorf("track end: %w", err)
	}
	return SampleTrack(math.Min(t1, t2), math.Max(t1, t2), n, s, el, m)
}

// branchTime returns the time from scene centre at which the satellite is over
// the given geodetic latitude, clamped to the orbit's latitude band.
func branchTime(latDeg float64, s transform.Spheroid, el Elements, m *SatModel) (float64, error) {
	latDeg = math.Max(-90, math.Min(90, latDeg))
	phiP, err := GeodeticToOrbitLatitude(latDeg, el, s)
	if err != nil {
		return 0, err
	}

	ratio := math.Sin(phiP) / math.Sin(el.Inclination*d2r)
	u := math.Asin(math.Max(-1, math.Min(1, ratio)))
	if math.Cos(m.Gamm0) < 0 {
		u = math.Pi - u
	}
	return (u - m.Gamm0) / el.AngularVelocity, nil
}

// SampleTrack builds n evenly spaced track samples between tStart and tEnd
// seconds from scene centre.
func SampleTrack(tStart, tEnd float64, n int, s transform.Spheroid, el Elements, m *SatModel) (Track, error) {
	if n < 2 || !(tEnd > tStart) {
		return nil, fmt.Errorf("%w: %d samples over [%v, %v] s", ErrTrackNotMonotonic, n, tStart, tEnd)
	}

	inc := el.Inclination * d2r
	sinI, cosI := math.Sin(inc), math.Cos(inc)

	times := floats.Span(make([]float64, n), tStart, tEnd)
	tr := make(Track, n)
	for i, t := range times {
		u := m.Gamm0 + el.AngularVelocity*t
		phi, lam := m.SubSatellite(u, t, el, s)
		beta := groundHeading(u, phi, sinI, cosI, el.AngularVelocity, s.RotationRate)

		tr[i] = TrackPoint{
			T:    t,
			Rho:  el.SemiMajorRadius,
			PhiP: phi,
			Lam:  lam,
			Beta: beta,
			Hxy:  el.SemiMajorRadius * math.Cos(phi),
			Mj:   u,
			Skew: WrapPi(beta - inertialHeading(u, sinI, cosI)),
		}
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return tr, nil
}
