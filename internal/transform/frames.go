package transform

import "math"

// StateTEME is a position/velocity pair in the TEME frame as produced by SGP4.
type StateTEME struct {
	Position [3]float64 // km
	Velocity [3]float64 // km/s
}

// StateECEF is a position/velocity pair in the Earth-fixed frame.
type StateECEF struct {
	Position [3]float64 // metres
	Velocity [3]float64 // m/s
}

// siderealRate is the Earth's sidereal rotation rate (IAU) applied to the
// TEME→ECEF velocity transform.
const siderealRate = 7.292115146706979e-5

// TEMEToECEF rotates a TEME state about the Z axis by the GMST angle (radians)
// and removes the Earth-rotation velocity term. Polar motion and the equation
// of the equinoxes are ignored (tens of metres).
func TEMEToECEF(s StateTEME, gmst float64) StateECEF {
	cosG, sinG := math.Cos(gmst), math.Sin(gmst)

	x := s.Position[0]*cosG + s.Position[1]*sinG
	y := -s.Position[0]*sinG + s.Position[1]*cosG
	z := s.Position[2]

	vx := s.Velocity[0]*cosG + s.Velocity[1]*sinG + siderealRate*y
	vy := -s.Velocity[0]*sinG + s.Velocity[1]*cosG - siderealRate*x
	vz := s.Velocity[2]

	return StateECEF{
		Position: [3]float64{x * 1000, y * 1000, z * 1000},
		Velocity: [3]float64{vx * 1000, vy * 1000, vz * 1000},
	}
}

// Radius returns the magnitude of the position vector in metres.
func (s StateECEF) Radius() float64 {
	p := s.Position
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}

// Valid reports whether the state describes a plausible Earth orbit:
// finite components and a radius between 6200 km and 50000 km.
func (s StateECEF) Valid() bool {
	for _, v := range s.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	r := s.Radius()
	return r >= 6200e3 && r <= 50000e3
}
