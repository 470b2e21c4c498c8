package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quicklook/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", resolved)
	}
	if cfg.Reduction.Channel != "red" {
		t.Fatalf("default channel = %q, want red", cfg.Reduction.Channel)
	}
	if cfg.Grid.SkyBins != 401 {
		t.Fatalf("default sky bins = %d, want 401", cfg.Grid.SkyBins)
	}
	if cfg.Reduction.ChunkRows != 112 {
		t.Fatalf("default chunk rows = %d, want 112", cfg.Reduction.ChunkRows)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[observation]
date = "20181108"
observation_id = 17
instrument = "VIRUS"
slot = " 037 "

[reduction]
channel = "Green"
`)
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Observation.Date != "20181108" || cfg.Observation.ObservationID != 17 {
		t.Fatalf("observation = %+v", cfg.Observation)
	}
	if cfg.Observation.Instrument != "virus" {
		t.Fatalf("instrument = %q, want lowercased virus", cfg.Observation.Instrument)
	}
	if cfg.Observation.Slot != "037" {
		t.Fatalf("slot = %q, want trimmed 037", cfg.Observation.Slot)
	}
	if cfg.Reduction.Channel != "green" {
		t.Fatalf("channel = %q, want green", cfg.Reduction.Channel)
	}
}

func TestLoadExpandsPaths(t *testing.T) {
	path := writeConfig(t, `
[paths]
raw_dir = "~/raw"
`)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.HasPrefix(cfg.Paths.RawDir, "~") {
		t.Fatalf("raw_dir not expanded: %q", cfg.Paths.RawDir)
	}
	if !filepath.IsAbs(cfg.Paths.RawDir) {
		t.Fatalf("raw_dir not absolute: %q", cfg.Paths.RawDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name     string
		contents string
		fragment string
	}{
		{
			name:     "bad channel",
			contents: "[reduction]\nchannel = \"ultraviolet\"\n",
			fragment: "reduction.channel",
		},
		{
			name:     "bad date",
			contents: "[observation]\ndate = \"2018-11-08\"\n",
			fragment: "observation.date",
		},
		{
			name:     "bad wave step",
			contents: "[grid]\nwave_step = -2.0\n",
			fragment: "grid.wave_step",
		},
		{
			name:     "bad log format",
			contents: "[logging]\nformat = \"xml\"\n",
			fragment: "logging.format",
		},
		{
			name:     "sky bins too small",
			contents: "[grid]\nsky_bins = 1\n",
			fragment: "grid.sky_bins",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.contents)
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("error %q does not mention %q", err, tc.fragment)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CalibrationDB = filepath.Join(base, "cals", "cals.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.CalibrationDB)} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q missing: %v", dir, err)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample): %v", err)
	}
	if !exists {
		t.Fatal("sample config not found after CreateSample")
	}
	if cfg.Observation.Instrument != "virus" {
		t.Fatalf("sample instrument = %q", cfg.Observation.Instrument)
	}
}
