package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"quicklook/internal/calib"
	"quicklook/internal/config"
	"quicklook/internal/extract"
	"quicklook/internal/flat"
	"quicklook/internal/frame"
	"quicklook/internal/logging"
	"quicklook/internal/services"
)

// UnitResult is the reduction outcome of one (slot, amp) readout unit: the
// calibration record it was reduced against and the extracted spectra of
// each exposure, in exposure order.
type UnitResult struct {
	Record    *calib.Record
	Exposures []*extract.Result

	// CalDate is the date whose twilight frames built the master flat, and
	// CalSteps how many days back the resolver walked to find them.
	CalDate  string
	CalSteps int
	Skipped  int
}

// reduceUnit runs the full per-unit reduction: resolve and build the master
// flat from twilight frames, then preprocess and extract every science
// exposure.
func reduceUnit(ctx context.Context, cfg *config.Config, rec *calib.Record, grid extract.Grid, logger *slog.Logger) (*UnitResult, error) {
	ctx = services.WithSlot(ctx, rec.Slot)
	ctx = services.WithAmp(ctx, rec.Amp)
	logger = logging.WithContext(ctx, logger)

	twiPattern := rawPattern(cfg.Paths.RawDir, cfg.Observation.Date, cfg.Observation.Instrument,
		"*", "exp*", rec.Slot, rec.Amp, cfg.Observation.TwilightBase)
	res, err := calib.Resolve(twiPattern, cfg.Observation.Date, cfg.Reduction.CalLookbackDays, logger)
	if err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "twilight",
			fmt.Sprintf("no twilight frames for %s%s within %d days of %s",
				rec.Slot, rec.Amp, cfg.Reduction.CalLookbackDays, cfg.Observation.Date), nil)
	}

	logger.Info("building master flat", slog.String("cal_date", res.Date))
	masterFlat, err := buildMasterFlat(ctx, res.Pattern, rec.Bias)
	if err != nil {
		return nil, err
	}
	logger.Info("master flat ready",
		slog.Int("rows", masterFlat.Rows), slog.Int("cols", masterFlat.Cols))

	sciPattern := rawPattern(cfg.Paths.RawDir, cfg.Observation.Date, cfg.Observation.Instrument,
		observationID(cfg.Observation.ObservationID), "exp*", rec.Slot, rec.Amp, cfg.Observation.ScienceBase)
	sciFiles, err := filepath.Glob(sciPattern)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "science",
			fmt.Sprintf("glob %s", sciPattern), err)
	}
	if len(sciFiles) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "science",
			fmt.Sprintf("no science frames match %s", sciPattern), nil)
	}
	sort.Strings(sciFiles)

	unit := &UnitResult{Record: rec, CalDate: res.Date, CalSteps: res.Steps}
	for _, path := range sciFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sci, err := loadCalibrated(path, rec.Bias)
		if err != nil {
			return nil, err
		}
		extracted, err := extract.Fibers(sci.Flux, masterFlat, rec, grid, logger)
		if err != nil {
			return nil, err
		}
		unit.Exposures = append(unit.Exposures, extracted)
		unit.Skipped += len(extracted.Skipped)
		logger.Info("extracted exposure",
			slog.Int("exposure", len(unit.Exposures)-1),
			slog.Int("fibers", rec.Fibers()),
			slog.Int("skipped", len(extracted.Skipped)))
	}
	return unit, nil
}

// buildMasterFlat preprocesses every frame matching pattern and median
// combines them.
func buildMasterFlat(ctx context.Context, pattern string, bias calib.Bias) (*frame.Frame, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "flat", fmt.Sprintf("glob %s", pattern), err)
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "flat",
			fmt.Sprintf("no twilight frames match %s", pattern), nil)
	}
	sort.Strings(files)

	frames := make([]*frame.Frame, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cal, err := loadCalibrated(path, bias)
		if err != nil {
			return nil, err
		}
		frames = append(frames, cal.Flux)
	}
	return flat.Build(frames)
}

// loadCalibrated loads one raw frame, preprocesses it, and subtracts the
// unit's master bias.
func loadCalibrated(path string, bias calib.Bias) (*frame.Calibrated, error) {
	raw, err := frame.Load(path)
	if err != nil {
		return nil, err
	}
	cal, err := frame.Preprocess(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "preprocess", path, err)
	}
	if err := bias.Apply(cal.Flux); err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "bias", path, err)
	}
	return cal, nil
}
