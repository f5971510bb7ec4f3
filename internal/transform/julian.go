package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// daysPerCentury is the length of a Julian century in days.
const daysPerCentury = 36525.0

// JulianDate converts a time.Time (UTC) to Julian Date.
// Uses the standard astronomical algorithm valid for dates after March 1, 4801 BC.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())

	// Jan/Feb count as months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	return jd + DecimalHour(t)/24.0
}

// Century returns the Julian centuries elapsed since the J2000.0 epoch.
func Century(t time.Time) float64 {
	return (JulianDate(t) - j2000) / daysPerCentury
}

// DecimalHour returns the UTC time of day in hours.
func DecimalHour(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Hour()) +
		float64(t.Minute())/60.0 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600.0
}

// ShiftCentury moves a Julian century value by a number of seconds.
func ShiftCentury(century, seconds float64) float64 {
	return century + seconds/(86400.0*daysPerCentury)
}

// GMST calculates Greenwich Mean Sidereal Time in radians for a given UTC time
// (IAU-82, Vallado Eq 3-47).
func GMST(t time.Time) float64 {
	tUT1 := Century(t)

	// 876600h = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	gmstSec = math.Mod(gmstSec, 86400.0)
	if gmstSec < 0 {
		gmstSec += 86400.0
	}
	return gmstSec / 86400.0 * 2.0 * math.Pi
}
