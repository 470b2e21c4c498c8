// Package extract pulls per-fiber spectra out of preprocessed detector
// frames and resamples them onto a common wavelength grid.
package extract

import (
	"fmt"
	"log/slog"
	"math"

	"quicklook/internal/calib"
	"quicklook/internal/frame"
	"quicklook/internal/services"
)

// Result holds the rectified spectra of one (slot, amp) readout: one row per
// fiber, one column per grid bin. Fibers whose trace leaves the detector are
// listed in Skipped and keep an all-zero row so fiber indices stay aligned
// with the calibration tables.
type Result struct {
	Science  [][]float64
	Twilight [][]float64
	Skipped  []int
}

// Fibers extracts every fiber of rec from the science and twilight frames.
// The twilight spectrum is the plain average of the two detector rows
// bracketing the trace; the science spectrum is flat-fielded row by row
// before averaging, so fiber-to-fiber throughput divides out.
func Fibers(sci, twi *frame.Frame, rec *calib.Record, grid Grid, logger *slog.Logger) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	if sci.Rows != twi.Rows || sci.Cols != twi.Cols {
		return nil, services.Wrap(services.ErrValidation, "extract", "fibers",
			fmt.Sprintf("science frame is %dx%d but twilight is %dx%d",
				sci.Rows, sci.Cols, twi.Rows, twi.Cols), nil)
	}
	cols := rec.Columns()
	if cols > sci.Cols {
		return nil, services.Wrap(services.ErrValidation, "extract", "fibers",
			fmt.Sprintf("trace covers %d columns but frame has %d", cols, sci.Cols), nil)
	}

	res := &Result{
		Science:  make([][]float64, rec.Fibers()),
		Twilight: make([][]float64, rec.Fibers()),
	}
	nativeSci := make([]float64, cols)
	nativeTwi := make([]float64, cols)

	for fiber := 0; fiber < rec.Fibers(); fiber++ {
		res.Science[fiber] = make([]float64, grid.N)
		res.Twilight[fiber] = make([]float64, grid.N)

		trace := rec.Trace[fiber]
		if !traceOnDetector(trace, sci.Rows) {
			res.Skipped = append(res.Skipped, fiber)
			if logger != nil {
				logger.Warn("fiber trace off detector",
					slog.String("slot", rec.Slot),
					slog.String("amp", rec.Amp),
					slog.Int("fiber", fiber))
			}
			continue
		}

		for c := 0; c < cols; c++ {
			lo := int(math.Floor(trace[c]))
			hi := int(math.Ceil(trace[c]))
			fLo, fHi := twi.At(lo, c), twi.At(hi, c)
			nativeTwi[c] = (fLo + fHi) / 2
			nativeSci[c] = (sci.At(lo, c)/fLo + sci.At(hi, c)/fHi) / 2
		}

		resample(grid, rec.Wavelength[fiber], nativeSci, res.Science[fiber])
		resample(grid, rec.Wavelength[fiber], nativeTwi, res.Twilight[fiber])
	}
	return res, nil
}

// traceOnDetector reports whether every bracketing row pair fits the frame.
func traceOnDetector(trace []float64, rows int) bool {
	min, max := trace[0], trace[0]
	for _, v := range trace[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min >= 0 && int(math.Ceil(max)) < rows
}

// resample linearly interpolates the native spectrum (ws, vs) onto the grid,
// writing into out. Bins outside the native coverage stay zero, as do bins
// whose interpolated value is not finite.
func resample(grid Grid, ws, vs []float64, out []float64) {
	for i := range out {
		out[i] = 0
	}
	if len(ws) < 2 {
		return
	}
	// Traces on flipped amplifiers run red to blue; interpolation wants
	// ascending wavelengths.
	if ws[0] > ws[len(ws)-1] {
		ws = reversed(ws)
		vs = reversed(vs)
	}
	lo, hi := ws[0], ws[len(ws)-1]

	j := 0
	for i := 0; i < grid.N; i++ {
		w := grid.Wavelength(i)
		if w < lo || w > hi {
			continue
		}
		for j+1 < len(ws)-1 && ws[j+1] < w {
			j++
		}
		v := vs[j]
		if span := ws[j+1] - ws[j]; span != 0 {
			t := (w - ws[j]) / span
			v = vs[j]*(1-t) + vs[j+1]*t
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = v
	}
}

func reversed(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[len(x)-1-i] = v
	}
	return out
}
