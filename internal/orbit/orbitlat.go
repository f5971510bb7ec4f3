package orbit

import (
	"fmt"
	"math"

	"github.com/star/satangles/internal/transform"
)

// normalPoint describes where the ellipsoid normal through a ground point
// meets the orbit sphere.
type normalPoint struct {
	orbitLat float64 // geocentric latitude of the intersection, radians
	height   float64 // distance along the normal, metres
	rho      float64 // geocentric radius of the ground point, metres
	prime    float64 // prime-vertical radius at the ground point, metres
}

func intersectNormal(latDeg float64, el Elements, s transform.Spheroid) (normalPoint, error) {
	if math.IsNaN(latDeg) || math.Abs(latDeg) > 90 {
		return normalPoint{}, fmt.Errorf("%w: %v deg", ErrInvalidLatitude, latDeg)
	}
	if !(el.SemiMajorRadius > 0) {
		return normalPoint{}, fmt.Errorf("%w: orbit radius %v m", ErrInvalidLatitude, el.SemiMajorRadius)
	}

	phi := latDeg * d2r
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)

	n := s.PrimeVertical(phi)
	p0 := n * cosPhi
	z0 := n * (1 - s.EccentricitySquared) * sinPhi

	// |P0 + h·normal| = Rs, solved for the outward root.
	b := p0*cosPhi + z0*sinPhi
	c := p0*p0 + z0*z0 - el.SemiMajorRadius*el.SemiMajorRadius
	disc := b*b - c
	if disc < 0 {
		return normalPoint{}, fmt.Errorf("%w: normal at %v deg misses orbit radius", ErrInvalidLatitude, latDeg)
	}
	h := -b + math.Sqrt(disc)

	return normalPoint{
		orbitLat: math.Atan2(z0+h*sinPhi, p0+h*cosPhi),
		height:   h,
		rho:      math.Hypot(p0, z0),
		prime:    n,
	}, nil
}

// GeodeticToOrbitLatitude converts a geodetic latitude (degrees) into the
// geocentric latitude (radians) at which the satellite sits when it is on the
// ellipsoid normal of that latitude, i.e. directly overhead.
func GeodeticToOrbitLatitude(latDeg float64, el Elements, s transform.Spheroid) (float64, error) {
	np, err := intersectNormal(latDeg, el, s)
	if err != nil {
		return 0, err
	}
	return np.orbitLat, nil
}
