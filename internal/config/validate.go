package config

import (
	"errors"
	"fmt"
)

var validChannels = map[string]struct{}{
	"blue":  {},
	"green": {},
	"red":   {},
}

var validLogFormats = map[string]struct{}{
	"auto":    {},
	"console": {},
	"json":    {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateObservation(); err != nil {
		return err
	}
	if err := c.validateReduction(); err != nil {
		return err
	}
	if err := c.validateGrid(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateObservation() error {
	if c.Observation.Date != "" {
		if len(c.Observation.Date) != 8 {
			return fmt.Errorf("observation.date %q must be YYYYMMDD", c.Observation.Date)
		}
		for _, r := range c.Observation.Date {
			if r < '0' || r > '9' {
				return fmt.Errorf("observation.date %q must be YYYYMMDD", c.Observation.Date)
			}
		}
	}
	if c.Observation.ObservationID < 0 {
		return errors.New("observation.observation_id must not be negative")
	}
	return nil
}

func (c *Config) validateReduction() error {
	if _, ok := validChannels[c.Reduction.Channel]; !ok {
		return fmt.Errorf("reduction.channel %q must be one of blue, green, red", c.Reduction.Channel)
	}
	if c.Reduction.BackgroundPercentile >= 100 {
		return errors.New("reduction.background_percentile must be below 100")
	}
	return nil
}

func (c *Config) validateGrid() error {
	if c.Grid.WaveStep <= 0 {
		return errors.New("grid.wave_step must be positive")
	}
	if c.Grid.WaveEnd <= c.Grid.WaveStart {
		return errors.New("grid.wave_end must exceed grid.wave_start")
	}
	if c.Grid.SkyExtent <= 0 {
		return errors.New("grid.sky_extent must be positive")
	}
	if c.Grid.SkyBins < 2 {
		return errors.New("grid.sky_bins must be at least 2")
	}
	if c.Grid.SmoothSigma < 0 {
		return errors.New("grid.smooth_sigma must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		return fmt.Errorf("logging.format %q must be one of auto, console, json", c.Logging.Format)
	}
	return nil
}
