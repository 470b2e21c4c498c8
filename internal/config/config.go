package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RawDir        string `toml:"raw_dir"`
	CalibrationDB string `toml:"calibration_db"`
	OutputDir     string `toml:"output_dir"`
	LogDir        string `toml:"log_dir"`
}

// Observation identifies the exposure set to reduce.
type Observation struct {
	Date          string `toml:"date"`
	ObservationID int    `toml:"observation_id"`
	Instrument    string `toml:"instrument"`
	Slot          string `toml:"slot"`
	ScienceBase   string `toml:"science_base"`
	TwilightBase  string `toml:"twilight_base"`
}

// Reduction contains tunables for the normalization steps.
type Reduction struct {
	Channel              string `toml:"channel"`
	ChunkRows            int    `toml:"chunk_rows"`
	BackgroundPercentile int    `toml:"background_percentile"`
	CalLookbackDays      int    `toml:"cal_lookback_days"`
	Workers              int    `toml:"workers"`
}

// Grid describes the common wavelength grid and the sky-plane output grid.
type Grid struct {
	WaveStart   float64 `toml:"wave_start"`
	WaveEnd     float64 `toml:"wave_end"`
	WaveStep    float64 `toml:"wave_step"`
	SkyExtent   float64 `toml:"sky_extent"`
	SkyBins     int     `toml:"sky_bins"`
	SmoothSigma float64 `toml:"smooth_sigma"`
}

// Export toggles the optional output sinks.
type Export struct {
	ImagePNG       bool `toml:"image_png"`
	ImageFITS      bool `toml:"image_fits"`
	CatalogParquet bool `toml:"catalog_parquet"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quicklook.
//
// Configuration sections by subsystem:
//   - Paths: raw exposure root, calibration database, output and log dirs
//   - Observation: date / observation id / instrument / optional slot filter
//   - Reduction: channel selection, background flattening, resolver lookback
//   - Grid: common wavelength grid and sky-plane reconstruction grid
//   - Export: optional PNG / FITS / Parquet sinks
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Observation Observation `toml:"observation"`
	Reduction   Reduction   `toml:"reduction"`
	Grid        Grid        `toml:"grid"`
	Export      Export      `toml:"export"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quicklook/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was found at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quicklook.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a reduction run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir, c.Paths.LogDir, filepath.Dir(c.Paths.CalibrationDB)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
