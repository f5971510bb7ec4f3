package transform

import (
	"errors"
	"fmt"
	"math"
)

// EarthRotationRate is the Earth's rotational angular velocity in rad/s used
// for angle grids. Slightly below the IERS mean value (7.2921150e-5); kept for
// agreement with historical angle products.
const EarthRotationRate = 0.000072722052

// ErrInvalidSpheroid is returned by Spheroid.Validate.
var ErrInvalidSpheroid = errors.New("invalid spheroid")

// Spheroid describes the reference ellipsoid and the Earth's rotation rate.
// Values are scene constants; share them by value or pointer, never mutate.
type Spheroid struct {
	SemiMajorAxis       float64 // metres
	InverseFlattening   float64
	EccentricitySquared float64
	RotationRate        float64 // rad/s
}

// WGS84 is the spheroid used when the scene projection does not name one.
var WGS84 = NewSpheroid(6378137.0, 298.257223563)

// NewSpheroid derives the squared eccentricity from the inverse flattening.
func NewSpheroid(semiMajorAxis, inverseFlattening float64) Spheroid {
	f := 1.0 / inverseFlattening
	return Spheroid{
		SemiMajorAxis:       semiMajorAxis,
		InverseFlattening:   inverseFlattening,
		EccentricitySquared: 1.0 - (1.0-f)*(1.0-f),
		RotationRate:        EarthRotationRate,
	}
}

// Validate reports whether the spheroid can be used for geodetic conversions.
func (s Spheroid) Validate() error {
	switch {
	case !(s.SemiMajorAxis > 0) || math.IsInf(s.SemiMajorAxis, 0):
		return fmt.Errorf("%w: semi-major axis %v", ErrInvalidSpheroid, s.SemiMajorAxis)
	case s.EccentricitySquared < 0 || s.EccentricitySquared >= 1 || math.IsNaN(s.EccentricitySquared):
		return fmt.Errorf("%w: eccentricity squared %v", ErrInvalidSpheroid, s.EccentricitySquared)
	case s.RotationRate < 0 || math.IsNaN(s.RotationRate):
		return fmt.Errorf("%w: rotation rate %v", ErrInvalidSpheroid, s.RotationRate)
	}
	return nil
}

// PrimeVertical returns the radius of curvature in the prime vertical at the
// given geodetic latitude (radians).
func (s Spheroid) PrimeVertical(latRad float64) float64 {
	sinLat := math.Sin(latRad)
	return s.SemiMajorAxis / math.Sqrt(1-s.EccentricitySquared*sinLat*sinLat)
}
