// Package orbit models the satellite orbit for a single scene: orbital
// elements, the orbit-frame constants tying the scene centre to the orbit
// plane, and the discretized ground track searched by the view-angle solver.
//
// Angles inside the package are radians unless a name or doc says degrees.
// The orbit is treated as circular with radius SemiMajorRadius.
package orbit

import (
	"errors"
	"fmt"
	"math"
)

// earthMu is the Earth's gravitational parameter in m³/s².
const earthMu = 398600441800000.0

const secondsPerDay = 24 * 60 * 60

const (
	d2r = math.Pi / 180.0
	r2d = 180.0 / math.Pi
)

var (
	// ErrInvalidElements is returned when orbital elements cannot describe an orbit.
	ErrInvalidElements = errors.New("invalid orbital elements")

	// ErrInvalidLatitude is returned for latitudes outside ±90°, NaN, or a
	// latitude whose ellipsoid normal never reaches the orbit radius.
	ErrInvalidLatitude = errors.New("invalid latitude")
)

// Elements are the mean orbital elements the angle model needs.
type Elements struct {
	Inclination     float64 // degrees
	SemiMajorRadius float64 // metres
	AngularVelocity float64 // rad/s
}

// ElementsFromMeanMotion derives the orbit radius and angular velocity from a
// mean motion in revolutions per day, as published in TLE line 2.
func ElementsFromMeanMotion(inclinationDeg, revPerDay float64) Elements {
	omega := 2 * math.Pi * revPerDay / secondsPerDay
	return Elements{
		Inclination:     inclinationDeg,
		SemiMajorRadius: math.Cbrt(earthMu / (omega * omega)),
		AngularVelocity: omega,
	}
}

// Validate reports whether the elements describe a usable circular orbit.
func (e Elements) Validate() error {
	switch {
	case math.IsNaN(e.Inclination) || e.Inclination < 0 || e.Inclination > 180:
		return fmt.Errorf("%w: inclination %v deg", ErrInvalidElements, e.Inclination)
	case !(e.SemiMajorRadius > 0) || math.IsInf(e.SemiMajorRadius, 0):
		return fmt.Errorf("%w: semi-major radius %v m", ErrInvalidElements, e.SemiMajorRadius)
	case !(e.AngularVelocity > 0) || math.IsInf(e.AngularVelocity, 0):
		return fmt.Errorf("%w: angular velocity %v rad/s", ErrInvalidElements, e.AngularVelocity)
	}
	return nil
}

// Period returns the orbital period in seconds.
func (e Elements) Period() float64 {
	return 2 * math.Pi / e.AngularVelocity
}

// Pass is the direction of the satellite over the scene.
type Pass int

const (
	Ascending Pass = iota
	Descending
)

func (p Pass) String() string {
	switch p {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("Pass(%d)", int(p))
	}
}

// WrapPi reduces an angle in radians to (-π, π].
func WrapPi(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
