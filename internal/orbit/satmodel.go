package orbit

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/satangles/internal/transform"
)

// ErrUnreachableLatitude is returned when the scene centre lies beyond the
// latitude band the orbit's ground track can reach.
var ErrUnreachableLatitude = errors.New("latitude not reachable by orbit")

// equatorialSin is the sin(inclination) below which the orbit is treated as
// equatorial.
const equatorialSin = 1e-12

// SatModel holds the orbit-frame constants for one scene. Values are radians,
// metres and seconds. Built once by SetSatModel and shared read-only.
type SatModel struct {
	Phi0     float64 // geodetic latitude of the scene centre
	Phi0P    float64 // orbit-frame (geocentric) latitude of the satellite over the centre
	Rho0     float64 // geocentric radius of the centre ground point
	T0       float64 // time since the ascending node
	Lam0     float64 // Earth-fixed longitude of the ascending node at scene time
	Gamm0    float64 // argument of latitude at scene time
	Beta0    float64 // ground-track heading over the centre, clockwise from north
	Rotn0    float64 // Earth rotation rate / satellite angular velocity
	Hxy0     float64 // satellite distance from the Earth's axis
	N0       float64 // prime-vertical radius at the centre
	H0       float64 // satellite height along the centre's ellipsoid normal
	ThRatio0 float64 // tan(Phi0P)/tan(Phi0)
}

// SetSatModel places the satellite directly above the scene centre
// (degrees) at time zero, on the ascending or descending half of its orbit.
func SetSatModel(centreLon, centreLat float64, s transform.Spheroid, el Elements, pass Pass) (*SatModel, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("satellite model: %w", err)
	}
	if err := el.Validate(); err != nil {
		return nil, fmt.Errorf("satellite model: %w", err)
	}

	np, err := intersectNormal(centreLat, el, s)
	if err != nil {
		return nil, fmt.Errorf("satellite model centre: %w", err)
	}

	inc := el.Inclination * d2r
	sinI, cosI := math.Sin(inc), math.Cos(inc)
	lam0 := centreLon * d2r
	phi0 := centreLat * d2r

	var gamm0 float64
	if math.Abs(sinI) < equatorialSin {
		if math.Abs(np.orbitLat) > 1e-9 {
			return nil, fmt.Errorf("%w: %v deg for equatorial orbit", ErrUnreachableLatitude, centreLat)
		}
	} else {
		ratio := math.Sin(np.orbitLat) / sinI
		if math.Abs(ratio) > 1+1e-9 {
			return nil, fmt.Errorf("%w: %v deg for inclination %v deg", ErrUnreachableLatitude, centreLat, el.Inclination)
		}
		gamm0 = math.Asin(math.Max(-1, math.Min(1, ratio)))
		if pass == Descending {
			gamm0 = math.Pi - gamm0
		}
	}

	omegaS := el.AngularVelocity
	omegaE := s.RotationRate

	m := &SatModel{
		Phi0:  phi0,
		Phi0P: np.orbitLat,
		Rho0:  np.rho,
		T0:    gamm0 / omegaS,
		Lam0:  WrapPi(lam0 - math.Atan2(cosI*math.Sin(gamm0), math.Cos(gamm0))),
		Gamm0: gamm0,
		Beta0: groundHeading(gamm0, np.orbitLat, sinI, cosI, omegaS, omegaE),
		Rotn0: omegaE / omegaS,
		Hxy0:  el.SemiMajorRadius * math.Cos(np.orbitLat),
		N0:    np.prime,
		H0:    np.height,
	}
	if math.Abs(phi0) < 1e-9 {
		m.ThRatio0 = 1
	} else {
		m.ThRatio0 = math.Tan(np.orbitLat) / math.Tan(phi0)
	}
	return m, nil
}

// SubSatellite returns the geocentric latitude and Earth-fixed longitude of the
// satellite at argument of latitude u and time t seconds from scene centre.
func (m *SatModel) SubSatellite(u, t float64, el Elements, s transform.Spheroid) (lat, lon float64) {
	inc := el.Inclination * d2r
	lat = math.Asin(math.Sin(inc) * math.Sin(u))
	lon = WrapPi(m.Lam0 - s.RotationRate*t + math.Atan2(math.Cos(inc)*math.Sin(u), math.Cos(u)))
	return lat, lon
}

// groundHeading is the Earth-relative heading of the sub-satellite point,
// clockwise from north, for argument of latitude u and geocentric latitude phi.
func groundHeading(u, phi, sinI, cosI, omegaS, omegaE float64) float64 {
	cosPhi := math.Cos(phi)
	north := omegaS * sinI * math.Cos(u) / cosPhi
	east := omegaS*cosI/cosPhi - omegaE*cosPhi
	return math.Atan2(east, north)
}

// inertialHeading is the heading of the orbit plane ignoring Earth rotation.
func inertialHeading(u, sinI, cosI float64) float64 {
	return math.Atan2(cosI, sinI*math.Cos(u))
}
