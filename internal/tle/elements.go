package tle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when no entry matches a NORAD ID.
var ErrNotFound = errors.New("no TLE entry for satellite")

// ParseMeanElements extracts the mean elements from TLE line 2.
func ParseMeanElements(line2 string) (MeanElements, error) {
	line2 = strings.TrimRight(line2, "\r\n ")
	if len(line2) < 63 || !strings.HasPrefix(line2, "2 ") {
		return MeanElements{}, fmt.Errorf("malformed TLE line 2 (length %d)", len(line2))
	}

	field := func(name string, lo, hi int) (float64, error) {
		s := strings.TrimSpace(line2[lo:hi])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
		}
		return v, nil
	}

	var (
		me  MeanElements
		err error
	)
	if me.Inclination, err = field("inclination", 8, 16); err != nil {
		return MeanElements{}, err
	}
	if me.RAAN, err = field("right ascension", 17, 25); err != nil {
		return MeanElements{}, err
	}
	// Eccentricity carries an implied leading decimal point.
	if me.Eccentricity, err = field("eccentricity", 26, 33); err != nil {
		return MeanElements{}, err
	}
	me.Eccentricity /= 1e7
	if me.ArgPerigee, err = field("argument of perigee", 34, 42); err != nil {
		return MeanElements{}, err
	}
	if me.MeanAnomaly, err = field("mean anomaly", 43, 51); err != nil {
		return MeanElements{}, err
	}
	if me.MeanMotion, err = field("mean motion", 52, 63); err != nil {
		return MeanElements{}, err
	}
	if me.MeanMotion <= 0 {
		return MeanElements{}, fmt.Errorf("invalid mean motion %v rev/day", me.MeanMotion)
	}
	return me, nil
}

// Nearest returns the entry for noradID whose epoch is closest to t.
func Nearest(entries []TLEEntry, noradID int, t time.Time) (TLEEntry, error) {
	var (
		best  TLEEntry
		bestD time.Duration
		found bool
	)
	for _, e := range entries {
		if e.NORADID != noradID {
			continue
		}
		d := e.Epoch.Sub(t).Abs()
		if !found || d < bestD {
			best, bestD, found = e, d, true
		}
	}
	if !found {
		return TLEEntry{}, fmt.Errorf("%w: NORAD %d", ErrNotFound, noradID)
	}
	return best, nil
}
