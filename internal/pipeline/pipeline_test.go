package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"quicklook/internal/config"
	"quicklook/internal/export"
	"quicklook/internal/frame"
	"quicklook/internal/logging"
	"quicklook/internal/services"
	"quicklook/internal/testsupport"
)

func readCatalogRows(t *testing.T, path string) []export.CatalogRow {
	t.Helper()
	rows, err := export.ReadCatalog(path)
	if err != nil {
		t.Fatalf("read catalog %s: %v", path, err)
	}
	return rows
}

func constantFrame(rows, cols int, v float64) *frame.Frame {
	f := frame.New(rows, cols)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

// seedRun writes one readout unit's calibration and raw data: two twilight
// exposures at level 4 and three science exposures at level 8.
func seedRun(t *testing.T, cfg *config.Config) {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedCalibration(t, store, "056", "LL", []float64{2.5, 5.5, 7.5}, 20,
		cfg.Grid.WaveStart, cfg.Grid.WaveEnd)

	for exp := 1; exp <= 2; exp++ {
		testsupport.WriteRawFrame(t, cfg, testsupport.RawExposure{
			Date: cfg.Observation.Date, Obs: "0000001", Exp: exp,
			Slot: "056", Amp: "LL", Base: "twi",
		}, constantFrame(10, 20, 4), 1.0)
	}
	for exp := 1; exp <= 3; exp++ {
		testsupport.WriteRawFrame(t, cfg, testsupport.RawExposure{
			Date: cfg.Observation.Date, Obs: "0000007", Exp: exp,
			Slot: "056", Amp: "LL", Base: "sci",
		}, constantFrame(10, 20, 8), 1.0)
	}
}

func newPipeline(t *testing.T, cfg *config.Config) *Pipeline {
	t.Helper()

	store := testsupport.MustOpenStore(t, cfg)
	p, err := New(cfg, store, logging.NopLogger())
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSkyGrid(25, 41, 2),
		testsupport.WithExports(true, true, true))
	seedRun(t, cfg)

	summary, err := newPipeline(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if summary.RunID == "" {
		t.Fatal("missing run id")
	}
	if len(summary.Units) != 1 {
		t.Fatalf("units = %d, want 1", len(summary.Units))
	}
	unit := summary.Units[0]
	if unit.Slot != "056" || unit.Amp != "LL" {
		t.Fatalf("unit identity = %s%s", unit.Slot, unit.Amp)
	}
	if unit.Exposures != 3 || unit.Fibers != 3 || unit.Skipped != 0 {
		t.Fatalf("unit = %+v", unit)
	}
	if unit.CalDate != cfg.Observation.Date || unit.CalSteps != 0 {
		t.Fatalf("calibration resolution = %s after %d steps", unit.CalDate, unit.CalSteps)
	}
	if summary.Samples != 9 {
		t.Fatalf("samples = %d, want 3 fibers x 3 exposures", summary.Samples)
	}

	if len(summary.Outputs) != 3 {
		t.Fatalf("outputs = %v, want png, fits, parquet", summary.Outputs)
	}
	for _, path := range summary.Outputs {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("missing output %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("empty output %s", path)
		}
	}
}

func TestRunProducesFlatFieldedBrightness(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSkyGrid(25, 41, 2),
		testsupport.WithExports(false, false, true))
	seedRun(t, cfg)

	p := newPipeline(t, cfg)
	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var parquetPath string
	for _, path := range summary.Outputs {
		if strings.HasSuffix(path, ".parquet") {
			parquetPath = path
		}
	}
	if parquetPath == "" {
		t.Fatalf("no parquet output in %v", summary.Outputs)
	}

	// Constant science at 8 over twilight at 4: the flat-field ratio is 2,
	// and rescaling by the average twilight restores brightness 8. A single
	// background chunk rescales to its own level, leaving 8.
	rowsFromDisk := readCatalogRows(t, parquetPath)
	if len(rowsFromDisk) != 9 {
		t.Fatalf("catalog rows = %d, want 9", len(rowsFromDisk))
	}
	for _, row := range rowsFromDisk {
		if math.Abs(row.Brightness-8) > 1e-9 {
			t.Fatalf("brightness = %v, want 8", row.Brightness)
		}
	}
}

func TestRunUsesFallbackTwilight(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSkyGrid(25, 41, 2),
		testsupport.WithExports(false, false, false))

	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedCalibration(t, store, "056", "LL", []float64{2.5, 5.5}, 20,
		cfg.Grid.WaveStart, cfg.Grid.WaveEnd)

	// Twilight only two nights earlier; science on the requested night.
	testsupport.WriteRawFrame(t, cfg, testsupport.RawExposure{
		Date: "20240113", Obs: "0000001", Exp: 1,
		Slot: "056", Amp: "LL", Base: "twi",
	}, constantFrame(10, 20, 4), 1.0)
	for exp := 1; exp <= 3; exp++ {
		testsupport.WriteRawFrame(t, cfg, testsupport.RawExposure{
			Date: cfg.Observation.Date, Obs: "0000007", Exp: exp,
			Slot: "056", Amp: "LL", Base: "sci",
		}, constantFrame(10, 20, 8), 1.0)
	}

	summary, err := newPipeline(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	unit := summary.Units[0]
	if unit.CalDate != "20240113" || unit.CalSteps != 2 {
		t.Fatalf("calibration resolution = %s after %d steps, want 20240113 after 2",
			unit.CalDate, unit.CalSteps)
	}
}

func TestRunRejectsFourthExposure(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSkyGrid(25, 41, 2),
		testsupport.WithExports(false, false, false))
	seedRun(t, cfg)
	testsupport.WriteRawFrame(t, cfg, testsupport.RawExposure{
		Date: cfg.Observation.Date, Obs: "0000007", Exp: 4,
		Slot: "056", Amp: "LL", Base: "sci",
	}, constantFrame(10, 20, 8), 1.0)

	_, err := newPipeline(t, cfg).Run(context.Background())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for a fourth exposure", err)
	}
}

func TestRunFailsWithoutTwilight(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSkyGrid(25, 41, 2),
		testsupport.WithExports(false, false, false))

	store := testsupport.MustOpenStore(t, cfg)
	testsupport.SeedCalibration(t, store, "056", "LL", []float64{2.5}, 20,
		cfg.Grid.WaveStart, cfg.Grid.WaveEnd)
	testsupport.WriteRawFrame(t, cfg, testsupport.RawExposure{
		Date: cfg.Observation.Date, Obs: "0000007", Exp: 1,
		Slot: "056", Amp: "LL", Base: "sci",
	}, constantFrame(10, 20, 8), 1.0)

	// Keep the lookback short so the walk finishes quickly.
	cfg.Reduction.CalLookbackDays = 3

	_, err := newPipeline(t, cfg).Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunFailsWithoutCalibration(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithExports(false, false, false))
	_, err := newPipeline(t, cfg).Run(context.Background())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for empty store", err)
	}
}

func TestRunLockedOutputDir(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithSkyGrid(25, 41, 2),
		testsupport.WithExports(false, false, false))
	seedRun(t, cfg)

	// Hold the lock the pipeline wants.
	held := flock.New(filepath.Join(cfg.Paths.OutputDir, "quicklook.lock"))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire test lock: ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	_, err = newPipeline(t, cfg).Run(context.Background())
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient while locked", err)
	}
}

func TestRawPattern(t *testing.T) {
	got := rawPattern("/raw", "20240115", "virus", "0000007", "exp*", "056", "LL", "sci")
	want := filepath.Join("/raw", "20240115", "virus", "virus0000007", "exp*", "virus", "2*056LL*sci.fits")
	if got != want {
		t.Fatalf("rawPattern = %s, want %s", got, want)
	}
	if observationID(7) != "0000007" {
		t.Fatalf("observationID(7) = %s", observationID(7))
	}
}
