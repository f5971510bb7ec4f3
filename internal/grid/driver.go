package grid

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/star/satangles/internal/metrics"
	"github.com/star/satangles/internal/solar"
	"github.com/star/satangles/internal/transform"
	"github.com/star/satangles/internal/viewangle"
)

const r2d = 180.0 / math.Pi

// numStatuses covers every viewangle.Status value.
const numStatuses = 3

// RowStats summarises one or more computed rows.
type RowStats struct {
	ByStatus    [numStatuses]int
	TrackCentre int
}

func (s *RowStats) merge(o RowStats) {
	for i, c := range o.ByStatus {
		s.ByStatus[i] += c
	}
	s.TrackCentre += o.TrackCentre
}

// Driver runs grid passes over a worker pool.
type Driver struct {
	cfg    Config
	logger *slog.Logger
}

// NewDriver validates cfg and returns a Driver.
func NewDriver(cfg Config, logger *slog.Logger) (*Driver, error) {
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: workers %d", ErrInvalidConfig, cfg.Workers)
	}
	metrics.SetWorkers(cfg.Workers)
	return &Driver{cfg: cfg, logger: logger}, nil
}

// Pass is a scene prepared for computation. It is read-only and may be shared
// by goroutines computing different rows.
type Pass struct {
	scene    *Scene
	solver   *viewangle.Solver
	eph      solar.Ephemeris
	perPixel bool
}

// Prepare validates the scene and precomputes the scene-centre ephemeris.
func (d *Driver) Prepare(scene *Scene) (*Pass, error) {
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	solver, err := viewangle.NewSolver(&scene.Spheroid, &scene.Elements, scene.Model, scene.Track)
	if err != nil {
		return nil, fmt.Errorf("preparing grid pass: %w", err)
	}
	return &Pass{
		scene:    scene,
		solver:   solver,
		eph:      solar.NewEphemeris(scene.Century),
		perPixel: d.cfg.PerPixelEphemeris,
	}, nil
}

// Run computes every pixel of scene into out. Rows already finished when ctx
// is cancelled stay written; the returned error is then ctx.Err().
func (d *Driver) Run(ctx context.Context, scene *Scene, out *Output) (Summary, error) {
	p, err := d.Prepare(scene)
	if err != nil {
		return Summary{}, err
	}
	if err := out.Validate(scene.Rows, scene.Cols); err != nil {
		return Summary{}, err
	}

	sum := Summary{
		RunID: uuid.NewString(),
		Rows:  scene.Rows,
		Cols:  scene.Cols,
	}
	d.logger.Debug("grid pass starting",
		"run_id", sum.RunID,
		"rows", scene.Rows,
		"cols", scene.Cols,
		"workers", d.cfg.Workers,
		"track_points", len(scene.Track),
		"per_pixel_ephemeris", d.cfg.PerPixelEphemeris,
	)

	start := time.Now()
	stats, rowsDone, err := d.runPool(ctx, p, out)
	sum.Duration = time.Since(start)
	sum.RowsDone = rowsDone
	sum.TrackCentre = stats.TrackCentre
	sum.ByStatus = make(map[viewangle.Status]int, numStatuses)
	for i, c := range stats.ByStatus {
		st := viewangle.Status(i)
		sum.ByStatus[st] = c
		metrics.RecordPixels(st.String(), c)
	}
	metrics.RecordTrackCentre(stats.TrackCentre)

	if err != nil {
		metrics.ObservePass("cancelled", sum.Duration)
		d.logger.Warn("grid pass cancelled",
			"run_id", sum.RunID,
			"rows_done", rowsDone,
			"rows", scene.Rows,
			"error", err,
		)
		return sum, err
	}
	metrics.ObservePass("complete", sum.Duration)

	d.logger.Info("grid pass complete",
		"run_id", sum.RunID,
		"pixels", scene.Rows*scene.Cols,
		"failed", sum.Failed(),
		"track_centre_pixels", sum.TrackCentre,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	if failed := sum.Failed(); failed > 0 {
		d.logger.Warn("grid pass has failed pixels",
			"run_id", sum.RunID,
			"geodetic", sum.ByStatus[viewangle.StatusGeodetic],
			"no_interval", sum.ByStatus[viewangle.StatusNoInterval],
		)
	}
	return sum, nil
}

// ComputeRow computes one row into out and resets, then refills, that row's
// accumulator. out must match the scene shape.
func (p *Pass) ComputeRow(row int, out *Output) RowStats {
	var st RowStats
	out.Accumulator.resetRow(row)

	base := row * p.scene.Cols
	for col := 0; col < p.scene.Cols; col++ {
		sol, edge := p.solvePixel(row, col)
		out.set(base+col, sol)
		st.ByStatus[sol.Status]++
		if edge {
			out.Accumulator.add(row, col)
			st.TrackCentre++
		}
	}
	return st
}

// Pixel computes a single pixel without touching any output.
func (p *Pass) Pixel(row, col int) Solution {
	sol, _ := p.solvePixel(row, col)
	return sol
}

func (p *Pass) solvePixel(row, col int) (Solution, bool) {
	s := p.scene
	i := row*s.Cols + col
	lat, lon := s.Lat[i], s.Lon[i]

	res := p.solver.Solve(lat, lon, p.lonTolerance(row, col))
	if res.Status != viewangle.StatusOK {
		return Solution{Status: res.Status}, false
	}

	eph, hours := p.eph, s.Hours
	if p.perPixel {
		eph = solar.NewEphemeris(transform.ShiftCentury(s.Century, res.Time))
		hours += res.Time / 3600
	}
	solZen, solAz := eph.Angle(lat, lon, hours)

	view := res.ViewZenith * r2d
	az := res.Azimuth * r2d
	return Solution{
		Time:            res.Time,
		ViewZenith:      view,
		Azimuth:         az,
		SolarZenith:     solZen,
		SolarAzimuth:    solAz,
		RelativeAzimuth: relativeAzimuth(az, solAz),
		Status:          viewangle.StatusOK,
	}, IsTrackEdge(res.Time, res.ViewZenith, res.Azimuth)
}

// lonTolerance derives the search tolerance from the longitude step to the
// neighbouring column.
func (p *Pass) lonTolerance(row, col int) float64 {
	s := p.scene
	i := row*s.Cols + col

	var d float64
	switch {
	case col+1 < s.Cols:
		d = s.Lon[i+1] - s.Lon[i]
	case col > 0:
		d = s.Lon[i] - s.Lon[i-1]
	}
	return viewangle.LonTolerance(math.Abs(wrap180(d)))
}
