package transform

import "math"

const (
	d2r = math.Pi / 180.0
	r2d = 180.0 / math.Pi

	// poleEps resolves the near-identity and near-pole branches of RotatePole.
	poleEps = 1e-6
)

// RotatePole re-expresses the direction (theta, phi) relative to a new pole
// located at (thetaP, phiP) in the unrotated frame. All angles are degrees:
// theta is the colatitude (angular distance from the pole) and phi the
// longitude. The result is the colatitude and longitude in the rotated frame.
//
// Degenerate inputs resolve to fixed values instead of dividing by a vanishing
// denominator:
//   - a pole within 1e-6 degrees of the unrotated one is the identity;
//   - a point within cos(theta) >= 1-1e-6 of the new pole gets theta 0 and
//     phi -offset;
//   - a longitude whose sine or cosine term is within 1e-6 of zero snaps to
//     0, 90, 180 or -90 degrees.
func RotatePole(theta, phi, thetaP, phiP float64) (float64, float64) {
	if math.Abs(thetaP) <= poleEps {
		return theta, phi
	}

	th := theta * d2r
	thp := thetaP * d2r
	dphi := (phi - phiP) * d2r

	offset := math.Atan(math.Tan(math.Pi-phiP*d2r)*math.Cos(thp)) * r2d

	cosOut := math.Cos(th)*math.Cos(thp) + math.Sin(th)*math.Sin(thp)*math.Cos(dphi)
	if cosOut >= 1-poleEps {
		return 0, -offset
	}
	thetaOut := math.Acos(math.Max(cosOut, -1)) * r2d

	num := math.Sin(th) * math.Sin(dphi)
	den := math.Sin(th)*math.Cos(thp)*math.Cos(dphi) - math.Cos(th)*math.Sin(thp)

	var phiOut float64
	switch {
	case math.Abs(num) <= poleEps:
		if den >= 0 {
			phiOut = 0
		} else {
			phiOut = 180
		}
	case math.Abs(den) <= poleEps:
		if num > 0 {
			phiOut = 90
		} else {
			phiOut = -90
		}
	default:
		phiOut = math.Atan2(num, den) * r2d
	}

	return thetaOut, phiOut - offset
}
