package orbit

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/star/satangles/internal/tle"
	"github.com/star/satangles/internal/transform"
)

// SGP4Propagator wraps go-satellite for a single TLE.
//
// go-satellite takes the Satellite by value, so SGP4 error codes raised during
// propagation never reach us. Failures are detected from NaN/Inf output and
// implausible radii instead.
type SGP4Propagator struct {
	sat     satellite.Satellite
	noradID int
}

// NewSGP4Propagator initialises SGP4 from TLE lines.
//
// Lines are checked before they reach go-satellite, which calls log.Fatal on
// malformed input.
func NewSGP4Propagator(line1, line2 string, noradID int) (*SGP4Propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, noradID: noradID}, nil
}

func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// Propagate returns the TEME state (km, km/s) at t, truncated to whole seconds.
func (p *SGP4Propagator) Propagate(t time.Time) (transform.StateTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	for _, v := range []float64{pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return transform.StateTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
		}
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.StateTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", p.noradID, mag)
	}

	return transform.StateTEME{
		Position: [3]float64{pos.X, pos.Y, pos.Z},
		Velocity: [3]float64{vel.X, vel.Y, vel.Z},
	}, nil
}

// State is the orbit geometry derived from a TLE at an acquisition time.
type State struct {
	Elements     Elements
	Pass         Pass
	SubSatellite transform.GeodeticPoint // on the given spheroid
	ECEF         transform.StateECEF
}

// ElementsAt derives the mean elements from the TLE and propagates it to t to
// find the pass direction and the sub-satellite point.
func ElementsAt(entry tle.TLEEntry, t time.Time, s transform.Spheroid) (State, error) {
	mean, err := tle.ParseMeanElements(entry.Line2)
	if err != nil {
		return State{}, fmt.Errorf("NORAD %d: %w", entry.NORADID, err)
	}

	prop, err := NewSGP4Propagator(entry.Line1, entry.Line2, entry.NORADID)
	if err != nil {
		return State{}, err
	}
	teme, err := prop.Propagate(t)
	if err != nil {
		return State{}, err
	}

	ecef := transform.TEMEToECEF(teme, transform.GMST(t))
	if !ecef.Valid() {
		return State{}, fmt.Errorf("NORAD %d: implausible ECEF state at %s", entry.NORADID, t.Format(time.RFC3339))
	}

	pass := Ascending
	if ecef.Velocity[2] < 0 {
		pass = Descending
	}

	// The geodetic latitude and longitude of the satellite are its sub-satellite point.
	geo := s.ECEFToGeodetic(ecef.Position[0], ecef.Position[1], ecef.Position[2])

	return State{
		Elements:     ElementsFromMeanMotion(mean.Inclination, mean.MeanMotion),
		Pass:         pass,
		SubSatellite: geo,
		ECEF:         ecef,
	}, nil
}
