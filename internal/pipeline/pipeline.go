// Package pipeline orchestrates a full quick-look reduction: per-unit
// extraction fans out across a bounded worker pool, the results are merged
// into a dither catalog, normalized, reconstructed onto the sky grid, and
// written to the configured output sinks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/astrogo/fitsio"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"quicklook/internal/calib"
	"quicklook/internal/config"
	"quicklook/internal/dither"
	"quicklook/internal/export"
	"quicklook/internal/extract"
	"quicklook/internal/logging"
	"quicklook/internal/normalize"
	"quicklook/internal/reconstruct"
	"quicklook/internal/render"
	"quicklook/internal/services"
)

// Pipeline bundles the dependencies of a reduction run.
type Pipeline struct {
	cfg    *config.Config
	store  *calib.Store
	logger *slog.Logger
}

// UnitSummary reports one readout unit in the run summary.
type UnitSummary struct {
	Slot      string
	Amp       string
	Fibers    int
	Skipped   int
	Exposures int
	CalDate   string
	CalSteps  int
}

// Summary is the outcome of a reduction run.
type Summary struct {
	RunID   string
	Units   []UnitSummary
	Samples int
	Outputs []string
}

// New assembles a pipeline from its dependencies.
func New(cfg *config.Config, store *calib.Store, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
			"pipeline requires config, calibration store, and logger", nil)
	}
	return &Pipeline{cfg: cfg, store: store, logger: logger}, nil
}

// Run reduces every configured readout unit and writes the outputs. Only one
// run may write to an output directory at a time; concurrent runs fail fast
// on the directory lock.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.New().String()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithRunID(p.logger, runID)

	lock := flock.New(filepath.Join(p.cfg.Paths.OutputDir, "quicklook.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "pipeline", "lock", "acquire output lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "lock",
			fmt.Sprintf("another reduction is writing to %s", p.cfg.Paths.OutputDir), nil)
	}
	defer func() { _ = lock.Unlock() }()

	records, err := p.store.Records(ctx, p.cfg.Observation.Slot)
	if err != nil {
		return nil, err
	}
	grid, err := extract.NewGrid(p.cfg.Grid.WaveStart, p.cfg.Grid.WaveEnd, p.cfg.Grid.WaveStep)
	if err != nil {
		return nil, err
	}

	logger.Info("starting reduction",
		slog.String("date", p.cfg.Observation.Date),
		slog.Int("observation", p.cfg.Observation.ObservationID),
		slog.Int("units", len(records)))

	units, err := p.reduceAll(ctx, records, grid, p.logger)
	if err != nil {
		return nil, err
	}

	catalog := dither.NewCatalog(grid)
	summary := &Summary{RunID: runID}
	for _, unit := range units {
		for exp, res := range unit.Exposures {
			if err := catalog.Add(exp, unit.Record, res); err != nil {
				return nil, err
			}
		}
		summary.Units = append(summary.Units, UnitSummary{
			Slot:      unit.Record.Slot,
			Amp:       unit.Record.Amp,
			Fibers:    unit.Record.Fibers(),
			Skipped:   unit.Skipped,
			Exposures: len(unit.Exposures),
			CalDate:   unit.CalDate,
			CalSteps:  unit.CalSteps,
		})
	}
	summary.Samples = catalog.Len()

	brightness, err := p.normalizeCatalog(catalog, grid)
	if err != nil {
		return nil, err
	}

	sky, err := p.reconstructSky(catalog, brightness)
	if err != nil {
		return nil, err
	}

	outputs, err := p.writeOutputs(catalog, brightness, sky)
	if err != nil {
		return nil, err
	}
	summary.Outputs = outputs

	logger.Info("reduction complete",
		slog.Int("samples", summary.Samples),
		slog.Int("outputs", len(outputs)))
	return summary, nil
}

// reduceAll fans the readout units out over a bounded worker pool and
// returns their results in record order. The first error cancels the
// remaining work.
func (p *Pipeline) reduceAll(ctx context.Context, records []*calib.Record, grid extract.Grid, logger *slog.Logger) ([]*UnitResult, error) {
	workers := p.cfg.Reduction.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(records) {
		workers = len(records)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		first error
	)
	results := make([]*UnitResult, len(records))
	sem := make(chan struct{}, workers)

	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec *calib.Record) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			unit, err := reduceUnit(ctx, p.cfg, rec, grid, logger)
			if err != nil {
				mu.Lock()
				if first == nil {
					first = err
					cancel()
				}
				mu.Unlock()
				return
			}
			results[i] = unit
		}(i, rec)
	}
	wg.Wait()

	if first != nil {
		return nil, first
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// normalizeCatalog restores the instrument response, collapses each sample
// to its channel brightness, and flattens the residual background.
func (p *Pipeline) normalizeCatalog(catalog *dither.Catalog, grid extract.Grid) ([]float64, error) {
	avg, err := normalize.AverageTwilight(catalog.TwilightRows())
	if err != nil {
		return nil, err
	}
	if err := normalize.ApplyResponse(catalog.ScienceRows(), avg); err != nil {
		return nil, err
	}

	band, err := normalize.ChannelBand(p.cfg.Reduction.Channel)
	if err != nil {
		return nil, err
	}
	brightness, err := normalize.Collapse(catalog.ScienceRows(), grid, band)
	if err != nil {
		return nil, err
	}
	return normalize.FlattenBackground(brightness, p.cfg.Reduction.ChunkRows,
		float64(p.cfg.Reduction.BackgroundPercentile))
}

// reconstructSky maps the catalog onto the sky grid and applies the
// presentation smoothing.
func (p *Pipeline) reconstructSky(catalog *dither.Catalog, brightness []float64) (*reconstruct.Sky, error) {
	xs, ys := catalog.Positions()
	spec := reconstruct.GridSpec{Extent: p.cfg.Grid.SkyExtent, Bins: p.cfg.Grid.SkyBins}
	img, err := reconstruct.Map(xs, ys, brightness, spec)
	if err != nil {
		return nil, err
	}
	smoothed, err := reconstruct.Smooth(img, p.cfg.Grid.SmoothSigma)
	if err != nil {
		return nil, err
	}
	reconstruct.SubtractMedian(smoothed)
	return &reconstruct.Sky{Raw: img, Display: smoothed, Spec: spec}, nil
}

// writeOutputs writes the configured sinks and returns their paths.
func (p *Pipeline) writeOutputs(catalog *dither.Catalog, brightness []float64, sky *reconstruct.Sky) ([]string, error) {
	stem := fmt.Sprintf("quicklook_%s_%07d_%s",
		p.cfg.Observation.Date, p.cfg.Observation.ObservationID, p.cfg.Reduction.Channel)
	var outputs []string

	if p.cfg.Export.ImagePNG {
		path := filepath.Join(p.cfg.Paths.OutputDir, stem+".png")
		title := fmt.Sprintf("%s obs %d (%s)",
			p.cfg.Observation.Date, p.cfg.Observation.ObservationID, p.cfg.Reduction.Channel)
		if err := render.Heatmap(sky.Display, sky.Spec.Extent, title, path); err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	if p.cfg.Export.ImageFITS {
		path := filepath.Join(p.cfg.Paths.OutputDir, stem+".fits")
		cards := []fitsio.Card{
			{Name: "DATE-OBS", Value: p.cfg.Observation.Date, Comment: "observation night"},
			{Name: "OBSID", Value: p.cfg.Observation.ObservationID, Comment: "observation id"},
			{Name: "CHANNEL", Value: p.cfg.Reduction.Channel, Comment: "spectrograph channel"},
		}
		if err := export.WriteFITS(path, sky.Display, cards...); err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	if p.cfg.Export.CatalogParquet {
		path := filepath.Join(p.cfg.Paths.OutputDir, stem+".parquet")
		if err := export.WriteCatalog(path, catalog, brightness); err != nil {
			return nil, err
		}
		outputs = append(outputs, path)
	}

	return outputs, nil
}
