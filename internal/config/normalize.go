package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeObservation()
	c.normalizeReduction()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RawDir, err = expandPath(c.Paths.RawDir); err != nil {
		return fmt.Errorf("paths.raw_dir: %w", err)
	}
	if c.Paths.CalibrationDB, err = expandPath(c.Paths.CalibrationDB); err != nil {
		return fmt.Errorf("paths.calibration_db: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeObservation() {
	c.Observation.Date = strings.TrimSpace(c.Observation.Date)
	c.Observation.Instrument = strings.ToLower(strings.TrimSpace(c.Observation.Instrument))
	if c.Observation.Instrument == "" {
		c.Observation.Instrument = defaultInstrument
	}
	c.Observation.Slot = strings.TrimSpace(c.Observation.Slot)
	c.Observation.ScienceBase = strings.TrimSpace(c.Observation.ScienceBase)
	if c.Observation.ScienceBase == "" {
		c.Observation.ScienceBase = defaultScienceBase
	}
	c.Observation.TwilightBase = strings.TrimSpace(c.Observation.TwilightBase)
	if c.Observation.TwilightBase == "" {
		c.Observation.TwilightBase = defaultTwilightBase
	}
}

func (c *Config) normalizeReduction() {
	c.Reduction.Channel = strings.ToLower(strings.TrimSpace(c.Reduction.Channel))
	if c.Reduction.Channel == "" {
		c.Reduction.Channel = defaultChannel
	}
	if c.Reduction.ChunkRows <= 0 {
		c.Reduction.ChunkRows = defaultChunkRows
	}
	if c.Reduction.BackgroundPercentile <= 0 {
		c.Reduction.BackgroundPercentile = defaultBackgroundPercentile
	}
	if c.Reduction.CalLookbackDays <= 0 {
		c.Reduction.CalLookbackDays = defaultCalLookbackDays
	}
	if c.Reduction.Workers < 0 {
		c.Reduction.Workers = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
