// Package transform provides the coordinate machinery shared by the angle
// solvers: reference spheroids, geodetic and Earth-fixed positions,
// topocentric look angles, pole rotation on the sphere, and time scales
// (Julian date, Julian century, GMST).
//
// Frames: Earth-fixed positions are metres in an ECEF frame aligned with the
// spheroid. SGP4 output (TEME) is brought into it with a GMST-only rotation,
// which ignores polar motion and the equation of the equinoxes.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3-4.
package transform

import "math"

// Observer holds a ground location in both geodetic and ECEF form.
// ECEF coordinates are precomputed once so they can be reused across many
// line-of-sight evaluations.
type Observer struct {
	LatRad, LonRad, AltM float64 // geodetic (radians, metres above ellipsoid)
	ECEF                 [3]float64
}

// LookAngles holds the direction and distance from an observer to a target.
type LookAngles struct {
	Zenith  float64 // radians from the local vertical
	Azimuth float64 // radians clockwise from north, [0, 2π)
	Range   float64 // metres
}

// NewObserver creates an Observer from geodetic coordinates on the given spheroid.
// Latitude and longitude are in degrees, altitude in metres above the ellipsoid.
func NewObserver(s Spheroid, latDeg, lonDeg, altM float64) Observer {
	lat := latDeg * d2r
	lon := lonDeg * d2r
	return Observer{
		LatRad: lat,
		LonRad: lon,
		AltM:   altM,
		ECEF:   s.GeodeticToECEF(lat, lon, altM),
	}
}

// GeodeticToECEF converts geodetic latitude/longitude (radians) and height
// (metres) to Earth-fixed coordinates.
func (s Spheroid) GeodeticToECEF(latRad, lonRad, altM float64) [3]float64 {
	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	sinLon, cosLon := math.Sin(lonRad), math.Cos(lonRad)

	N := s.PrimeVertical(latRad)

	return [3]float64{
		(N + altM) * cosLat * cosLon,
		(N + altM) * cosLat * sinLon,
		(N*(1-s.EccentricitySquared) + altM) * sinLat,
	}
}

// GeodeticPoint holds a geodetic position (degrees, metres).
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts Earth-fixed coordinates (metres) to geodetic
// coordinates with Bowring's iteration. Converges in 2-3 iterations for
// Earth orbits.
func (s Spheroid) ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	e2 := s.EccentricitySquared
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)

	lat := math.Atan2(z, p*(1-e2))
	for i := 0; i < 5; i++ {
		lat = math.Atan2(z+e2*s.PrimeVertical(lat)*math.Sin(lat), p)
	}

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	N := s.PrimeVertical(lat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-e2)
	}

	return GeodeticPoint{
		LatDeg: lat * r2d,
		LonDeg: lon * r2d,
		AltM:   alt,
	}
}

// Look computes the zenith angle, azimuth and range from the observer to a
// target given in ECEF metres.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado Section 4.4.
func (o Observer) Look(target [3]float64) LookAngles {
	rx := target[0] - o.ECEF[0]
	ry := target[1] - o.ECEF[1]
	rz := target[2] - o.ECEF[2]

	sinLat, cosLat := math.Sin(o.LatRad), math.Cos(o.LatRad)
	sinLon, cosLon := math.Sin(o.LonRad), math.Cos(o.LonRad)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	up := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	horizontal := math.Hypot(south, east)
	rangeMag := math.Hypot(horizontal, up)

	// atan2 keeps the zenith accurate near the vertical where acos loses digits.
	zen := math.Atan2(horizontal, up)

	// North is -South in SEZ.
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		Zenith:  zen,
		Azimuth: az,
		Range:   rangeMag,
	}
}
