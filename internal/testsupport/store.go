package testsupport

import (
	"context"
	"testing"

	"quicklook/internal/calib"
	"quicklook/internal/config"
)

// MustOpenStore opens the calibration store of the test config and closes it
// when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *calib.Store {
	t.Helper()

	store, err := calib.Open(cfg.Paths.CalibrationDB)
	if err != nil {
		t.Fatalf("open calibration store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SeedCalibration writes a simple calibration record: fibers evenly spread
// along x at the given row positions, a linear wavelength solution spanning
// [waveLo, waveHi], and flat traces. The record is returned for assertions.
func SeedCalibration(t testing.TB, store *calib.Store, slot, amp string, traceRows []float64, cols int, waveLo, waveHi float64) *calib.Record {
	t.Helper()

	fibers := len(traceRows)
	rec := &calib.Record{
		Slot:           slot,
		Amp:            amp,
		FiberPositions: make([]calib.Position, fibers),
		Wavelength:     make([][]float64, fibers),
		Trace:          make([][]float64, fibers),
	}
	for f := 0; f < fibers; f++ {
		rec.FiberPositions[f] = calib.Position{
			X: -2 + 4*float64(f)/float64(max(fibers-1, 1)),
			Y: float64(f) - float64(fibers-1)/2,
		}
		rec.Wavelength[f] = make([]float64, cols)
		rec.Trace[f] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			rec.Wavelength[f][c] = waveLo + (waveHi-waveLo)*float64(c)/float64(cols-1)
			rec.Trace[f][c] = traceRows[f]
		}
	}

	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatalf("seed calibration %s%s: %v", slot, amp, err)
	}
	return rec
}
