// Command diag runs the angle engine end to end on a synthetic north-up
// lat/lon grid and logs the pass summary and track products. The orbit comes
// from a TLE archive when SATANGLES_TLE_DIR is set, otherwise from built-in
// Landsat 8 elements.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/star/satangles/internal/centreline"
	"github.com/star/satangles/internal/grid"
	"github.com/star/satangles/internal/orbit"
	"github.com/star/satangles/internal/tle"
	"github.com/star/satangles/internal/transform"
)

// Landsat 8 reference orbit, used without a TLE archive.
const (
	defaultInclination = 98.2220
	defaultMeanMotion  = 14.57115829
	defaultNoradID     = 39084
)

type sceneConfig struct {
	Rows, Cols int
	PixelDeg   float64
	CentreLat  float64
	CentreLon  float64
	Pass       orbit.Pass
	Time       time.Time
}

type trackConfig struct {
	Points       int
	LatBuffer    float64
	MaxViewAngle float64
}

type tleConfig struct {
	Dir     string
	NoradID int
}

// geometry is the orbit and scene centre a pass is computed for.
type geometry struct {
	Elements  orbit.Elements
	Pass      orbit.Pass
	CentreLat float64
	CentreLon float64
	Time      time.Time
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("diagnostic run interrupted")
			os.Exit(130)
		}
		logger.Error("diagnostic run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	sceneCfg := loadSceneConfig(logger)
	trackCfg := loadTrackConfig(logger)
	gridCfg := loadGridConfig(logger)
	tleCfg := loadTLEConfig(logger)

	sph := transform.WGS84
	geom, err := loadGeometry(sceneCfg, tleCfg, sph, logger)
	if err != nil {
		return err
	}

	scene, err := buildScene(sceneCfg, trackCfg, geom, sph)
	if err != nil {
		return err
	}
	first, last := scene.Track.Span()
	logger.Info("scene prepared",
		"rows", scene.Rows,
		"cols", scene.Cols,
		"centre_lat", geom.CentreLat,
		"centre_lon", geom.CentreLon,
		"pass", geom.Pass.String(),
		"acquisition_time", geom.Time.Format(time.RFC3339),
		"decimal_hour", scene.Hours,
		"track_start_seconds", first,
		"track_end_seconds", last,
		"satellite_height_m", scene.Model.H0,
	)

	driver, err := grid.NewDriver(gridCfg, logger)
	if err != nil {
		return err
	}
	out := grid.NewOutput(scene.Rows, scene.Cols)
	sum, err := driver.Run(ctx, scene, out)
	if err != nil {
		return err
	}

	c := out.Pixel(scene.Rows/2, scene.Cols/2)
	logger.Info("scene centre pixel",
		"time_seconds", c.Time,
		"view_zenith", c.ViewZenith,
		"solar_zenith", c.SolarZenith,
		"solar_azimuth", c.SolarAzimuth,
		"status", c.Status.String(),
	)

	cl, err := centreline.New(out.Accumulator, scene.Rows, scene.Cols, scene.Lat, scene.Lon)
	if err != nil {
		return err
	}
	bl, err := centreline.NewBoxline(out, cl, trackCfg.MaxViewAngle)
	if err != nil {
		return err
	}
	top, bottom := cl[0], cl[len(cl)-1]
	logger.Info("centreline",
		"run_id", sum.RunID,
		"tracked_rows", cl.Tracked(),
		"mean_col", cl.MeanColumn(),
		"top_col", top.Col,
		"top_lat", top.Lat,
		"top_lon", top.Lon,
		"bottom_col", bottom.Col,
		"bottom_lat", bottom.Lat,
		"bottom_lon", bottom.Lon,
	)

	nv := centreline.DefaultVertices
	vertices, err := centreline.Vertices(bl, scene.Cols, scene.Lat, scene.Lon, nv[0], nv[1])
	if err != nil {
		logger.Warn("vertex grid unavailable", "run_id", sum.RunID, "error", err)
		return nil
	}
	for _, v := range vertices {
		logger.Debug("vertex",
			"row", v.Row,
			"col", v.Col,
			"lat", v.Lat,
			"lon", v.Lon,
		)
	}
	return nil
}

// loadGeometry takes the orbit from the TLE archive when one is configured;
// the scene is then centred on the sub-satellite point at acquisition time.
func loadGeometry(sceneCfg sceneConfig, tleCfg tleConfig, sph transform.Spheroid, logger *slog.Logger) (geometry, error) {
	if tleCfg.Dir == "" {
		return geometry{
			Elements:  orbit.ElementsFromMeanMotion(defaultInclination, defaultMeanMotion),
			Pass:      sceneCfg.Pass,
			CentreLat: sceneCfg.CentreLat,
			CentreLon: sceneCfg.CentreLon,
			Time:      sceneCfg.Time,
		}, nil
	}

	archive := tle.NewArchive(tleCfg.Dir, 0, logger)
	entry, err := archive.Load(tleCfg.NoradID, sceneCfg.Time)
	if err != nil {
		return geometry{}, err
	}
	state, err := orbit.ElementsAt(entry, sceneCfg.Time, sph)
	if err != nil {
		return geometry{}, err
	}

	logger.Info("orbit from TLE",
		"norad_id", entry.NORADID,
		"name", entry.Name,
		"epoch", entry.Epoch.Format(time.RFC3339),
		"inclination", state.Elements.Inclination,
		"semi_major_radius_m", state.Elements.SemiMajorRadius,
		"period_minutes", state.Elements.Period()/60,
		"pass", state.Pass.String(),
		"altitude_km", state.SubSatellite.AltM/1000,
	)
	return geometry{
		Elements:  state.Elements,
		Pass:      state.Pass,
		CentreLat: state.SubSatellite.LatDeg,
		CentreLon: state.SubSatellite.LonDeg,
		Time:      sceneCfg.Time,
	}, nil
}

// buildScene lays out a north-up grid around the centre and discretises the
// track over the grid's latitude range plus the configured buffer.
func buildScene(sceneCfg sceneConfig, trackCfg trackConfig, geom geometry, sph transform.Spheroid) (*grid.Scene, error) {
	m, err := orbit.SetSatModel(geom.CentreLon, geom.CentreLat, sph, geom.Elements, geom.Pass)
	if err != nil {
		return nil, err
	}

	rows, cols, step := sceneCfg.Rows, sceneCfg.Cols, sceneCfg.PixelDeg
	north := geom.CentreLat + step*float64(rows/2)
	west := geom.CentreLon - step*float64(cols/2)

	lat := make([]float64, rows*cols)
	lon := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lat[r*cols+c] = north - step*float64(r)
			lon[r*cols+c] = west + step*float64(c)
		}
	}

	south := north - step*float64(rows-1)
	track, err := orbit.SetTimes(south-trackCfg.LatBuffer, north+trackCfg.LatBuffer, trackCfg.Points, sph, geom.Elements, m)
	if err != nil {
		return nil, err
	}

	return &grid.Scene{
		Rows:     rows,
		Cols:     cols,
		Lat:      lat,
		Lon:      lon,
		Spheroid: sph,
		Elements: geom.Elements,
		Model:    m,
		Track:    track,
		Hours:    transform.DecimalHour(geom.Time),
		Century:  transform.Century(geom.Time),
	}, nil
}

func loadSceneConfig(logger *slog.Logger) sceneConfig {
	cfg := sceneConfig{
		Rows:      201,
		Cols:      201,
		PixelDeg:  0.0025,
		CentreLat: -35.0,
		CentreLon: 149.0,
		Pass:      orbit.Descending,
		Time:      time.Now().UTC(),
	}

	if v := os.Getenv("SATANGLES_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATANGLES_ROWS value, using default", "value", v, "default", cfg.Rows)
		} else {
			cfg.Rows = n
		}
	}

	if v := os.Getenv("SATANGLES_COLS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATANGLES_COLS value, using default", "value", v, "default", cfg.Cols)
		} else {
			cfg.Cols = n
		}
	}

	if v := os.Getenv("SATANGLES_PIXEL_DEG"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 1 {
			logger.Warn("invalid SATANGLES_PIXEL_DEG value, using default", "value", v, "default", cfg.PixelDeg)
		} else {
			cfg.PixelDeg = f
		}
	}

	if v := os.Getenv("SATANGLES_CENTRE_LAT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -90 || f > 90 {
			logger.Warn("invalid SATANGLES_CENTRE_LAT value, using default", "value", v, "default", cfg.CentreLat)
		} else {
			cfg.CentreLat = f
		}
	}

	if v := os.Getenv("SATANGLES_CENTRE_LON"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < -180 || f > 180 {
			logger.Warn("invalid SATANGLES_CENTRE_LON value, using default", "value", v, "default", cfg.CentreLon)
		} else {
			cfg.CentreLon = f
		}
	}

	if v := os.Getenv("SATANGLES_PASS"); v != "" {
		switch v {
		case "ascending":
			cfg.Pass = orbit.Ascending
		case "descending":
			cfg.Pass = orbit.Descending
		default:
			logger.Warn("invalid SATANGLES_PASS value, using default", "value", v, "default", cfg.Pass.String())
		}
	}

	if v := os.Getenv("SATANGLES_ACQUISITION_TIME"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			logger.Warn("invalid SATANGLES_ACQUISITION_TIME value, using current time", "value", v)
		} else {
			cfg.Time = t.UTC()
		}
	}

	logger.Info("scene config",
		"rows", cfg.Rows,
		"cols", cfg.Cols,
		"pixel_deg", cfg.PixelDeg,
		"acquisition_time", cfg.Time.Format(time.RFC3339),
	)

	return cfg
}

func loadTrackConfig(logger *slog.Logger) trackConfig {
	cfg := trackConfig{
		Points:       orbit.DefaultTrackPoints,
		LatBuffer:    1.0,
		MaxViewAngle: centreline.DefaultMaxViewAngle,
	}

	if v := os.Getenv("SATANGLES_TRACK_POINTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			logger.Warn("invalid SATANGLES_TRACK_POINTS value, using default", "value", v, "default", cfg.Points)
		} else {
			cfg.Points = n
		}
	}

	if v := os.Getenv("SATANGLES_LAT_BUFFER"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			logger.Warn("invalid SATANGLES_LAT_BUFFER value, using default", "value", v, "default", cfg.LatBuffer)
		} else {
			cfg.LatBuffer = f
		}
	}

	if v := os.Getenv("SATANGLES_MAX_VIEW_ANGLE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f >= 90 {
			logger.Warn("invalid SATANGLES_MAX_VIEW_ANGLE value, using default", "value", v, "default", cfg.MaxViewAngle)
		} else {
			cfg.MaxViewAngle = f
		}
	}

	logger.Info("track config",
		"points", cfg.Points,
		"lat_buffer", cfg.LatBuffer,
		"max_view_angle", cfg.MaxViewAngle,
	)

	return cfg
}

func loadGridConfig(logger *slog.Logger) grid.Config {
	cfg := grid.Config{
		Workers: runtime.NumCPU(),
	}

	if v := os.Getenv("SATANGLES_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATANGLES_WORKERS value, using default", "value", v, "default", cfg.Workers)
		} else {
			cfg.Workers = n
		}
	}

	if v := os.Getenv("SATANGLES_PER_PIXEL_EPHEMERIS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SATANGLES_PER_PIXEL_EPHEMERIS value, defaulting to false", "value", v)
		} else {
			cfg.PerPixelEphemeris = enabled
		}
	}

	logger.Info("grid config",
		"workers", cfg.Workers,
		"per_pixel_ephemeris", cfg.PerPixelEphemeris,
	)

	return cfg
}

func loadTLEConfig(logger *slog.Logger) tleConfig {
	cfg := tleConfig{
		NoradID: defaultNoradID,
	}

	if v := os.Getenv("SATANGLES_TLE_DIR"); v != "" {
		cfg.Dir = v
	}

	if v := os.Getenv("SATANGLES_NORAD_ID"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid SATANGLES_NORAD_ID value, using default", "value", v, "default", cfg.NoradID)
		} else {
			cfg.NoradID = n
		}
	}

	logger.Info("TLE config",
		"dir", cfg.Dir,
		"norad_id", cfg.NoradID,
	)

	return cfg
}
