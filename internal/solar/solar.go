// Package solar computes solar zenith and azimuth angles with the NOAA
// solar position algorithm, including its piecewise atmospheric refraction.
//
// Time is given as decimal UTC hours of the day plus the Julian century since
// J2000 that fixes the day. All angles are degrees.
package solar

import "math"

const (
	d2r = math.Pi / 180.0
	r2d = 180.0 / math.Pi
)

// Ephemeris holds the day-dependent terms of the solar position. They vary
// slowly enough to be shared by every pixel of a scene.
type Ephemeris struct {
	Declination    float64 // degrees
	RightAscension float64 // degrees
	EquationOfTime float64 // minutes
}

// NewEphemeris evaluates the solar ephemeris at the given Julian century.
func NewEphemeris(century float64) Ephemeris {
	t := century

	meanLong := math.Mod(280.46646+t*(36000.76983+t*0.0003032), 360)
	meanAnom := 357.52911 + t*(35999.05029-0.0001537*t)
	ecc := 0.016708634 - t*(0.000042037+0.0000001267*t)

	m := meanAnom * d2r
	centre := math.Sin(m)*(1.914602-t*(0.004817+0.000014*t)) +
		math.Sin(2*m)*(0.019993-0.000101*t) +
		math.Sin(3*m)*0.000289

	trueLong := meanLong + centre
	omega := (125.04 - 1934.136*t) * d2r
	appLong := (trueLong - 0.00569 - 0.00478*math.Sin(omega)) * d2r

	meanObliq := 23 + (26+(21.448-t*(46.815+t*(0.00059-t*0.001813)))/60)/60
	obliq := (meanObliq + 0.00256*math.Cos(omega)) * d2r

	ra := math.Atan2(math.Cos(obliq)*math.Sin(appLong), math.Cos(appLong))
	decl := math.Asin(math.Sin(obliq) * math.Sin(appLong))

	y := math.Tan(obliq / 2)
	y *= y
	l0 := meanLong * d2r
	eqTime := y*math.Sin(2*l0) -
		2*ecc*math.Sin(m) +
		4*ecc*y*math.Sin(m)*math.Cos(2*l0) -
		0.5*y*y*math.Sin(4*l0) -
		1.25*ecc*ecc*math.Sin(2*m)

	return Ephemeris{
		Declination:    decl * r2d,
		RightAscension: ra * r2d,
		EquationOfTime: 4 * eqTime * r2d,
	}
}

// Angle returns the refraction-corrected solar zenith and the solar azimuth
// (clockwise from north, [0, 360)) at a ground point and UTC decimal hour.
func (e Ephemeris) Angle(latDeg, lonDeg, hours float64) (zenith, azimuth float64) {
	ha := e.HourAngle(lonDeg, hours)

	lat := latDeg * d2r
	decl := e.Declination * d2r

	cosZen := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(ha*d2r)
	zen := math.Acos(math.Max(-1, math.Min(1, cosZen)))

	zenith = zen*r2d - Refraction(90-zen*r2d)

	denom := math.Cos(lat) * math.Sin(zen)
	if math.Abs(denom) <= 0.001 {
		if latDeg > 0 {
			return zenith, 180
		}
		return zenith, 0
	}

	cosAz := (math.Sin(lat)*math.Cos(zen) - math.Sin(decl)) / denom
	a := math.Acos(math.Max(-1, math.Min(1, cosAz))) * r2d
	if ha > 0 {
		azimuth = a + 180
	} else {
		azimuth = 540 - a
	}
	return zenith, math.Mod(azimuth, 360)
}

// HourAngle returns the solar hour angle in degrees, (-180, 180], at the given
// longitude and UTC decimal hour. Positive in the afternoon.
func (e Ephemeris) HourAngle(lonDeg, hours float64) float64 {
	trueSolar := math.Mod(hours*60+e.EquationOfTime+4*lonDeg, 1440)
	if trueSolar < 0 {
		trueSolar += 1440
	}
	ha := trueSolar/4 - 180
	if ha <= -180 {
		ha += 360
	}
	return ha
}

// Angle computes the solar zenith and azimuth for a single point, evaluating
// the ephemeris at the given Julian century.
func Angle(latDeg, lonDeg, hours, century float64) (zenith, azimuth float64) {
	return NewEphemeris(century).Angle(latDeg, lonDeg, hours)
}

// Refraction returns the atmospheric refraction correction in degrees for a
// geometric solar elevation in degrees.
func Refraction(elevDeg float64) float64 {
	var arcsec float64
	switch {
	case elevDeg > 85:
		return 0
	case elevDeg > 5:
		te := math.Tan(elevDeg * d2r)
		arcsec = 58.1/te - 0.07/(te*te*te) + 0.000086/(te*te*te*te*te)
	case elevDeg > -0.575:
		e := elevDeg
		arcsec = 1735 + e*(-518.2+e*(103.4+e*(-12.79+e*0.711)))
	default:
		arcsec = -20.772 / math.Tan(elevDeg*d2r)
	}
	return arcsec / 3600
}
