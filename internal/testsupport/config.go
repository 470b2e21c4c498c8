// Package testsupport provides shared fixtures for package tests: seeded
// configurations, calibration stores, and synthetic raw exposure trees.
package testsupport

import (
	"path/filepath"
	"testing"

	"quicklook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RawDir = filepath.Join(base, "raw")
	cfgVal.Paths.CalibrationDB = filepath.Join(base, "cals.db")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Observation.Date = "20240115"
	cfgVal.Observation.ObservationID = 7

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithObservation sets the night and observation ID on the test config.
func WithObservation(date string, obs int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Observation.Date = date
		b.cfg.Observation.ObservationID = obs
	}
}

// WithSlot restricts the test config to one IFU slot.
func WithSlot(slot string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Observation.Slot = slot
	}
}

// WithChannel selects the spectrograph channel on the test config.
func WithChannel(channel string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reduction.Channel = channel
	}
}

// WithSkyGrid shrinks the sky reconstruction grid, keeping tests fast.
func WithSkyGrid(extent float64, bins int, sigma float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Grid.SkyExtent = extent
		b.cfg.Grid.SkyBins = bins
		b.cfg.Grid.SmoothSigma = sigma
	}
}

// WithExports toggles the output sinks on the test config.
func WithExports(png, fits, parquet bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Export.ImagePNG = png
		b.cfg.Export.ImageFITS = fits
		b.cfg.Export.CatalogParquet = parquet
	}
}
