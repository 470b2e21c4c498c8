package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quicklook/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to point raw_dir at your exposure tree before reducing.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"paths.raw_dir", cfg.Paths.RawDir},
				{"paths.calibration_db", cfg.Paths.CalibrationDB},
				{"paths.output_dir", cfg.Paths.OutputDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"observation.date", cfg.Observation.Date},
				{"observation.observation_id", strconv.Itoa(cfg.Observation.ObservationID)},
				{"observation.instrument", cfg.Observation.Instrument},
				{"observation.slot", cfg.Observation.Slot},
				{"reduction.channel", cfg.Reduction.Channel},
				{"reduction.chunk_rows", strconv.Itoa(cfg.Reduction.ChunkRows)},
				{"reduction.background_percentile", strconv.Itoa(cfg.Reduction.BackgroundPercentile)},
				{"reduction.cal_lookback_days", strconv.Itoa(cfg.Reduction.CalLookbackDays)},
				{"reduction.workers", strconv.Itoa(cfg.Reduction.Workers)},
				{"grid.wave", fmt.Sprintf("%g..%g step %g", cfg.Grid.WaveStart, cfg.Grid.WaveEnd, cfg.Grid.WaveStep)},
				{"grid.sky", fmt.Sprintf("±%g over %d bins", cfg.Grid.SkyExtent, cfg.Grid.SkyBins)},
				{"grid.smooth_sigma", fmt.Sprintf("%g", cfg.Grid.SmoothSigma)},
				{"export.image_png", yesNo(cfg.Export.ImagePNG)},
				{"export.image_fits", yesNo(cfg.Export.ImageFITS)},
				{"export.catalog_parquet", yesNo(cfg.Export.CatalogParquet)},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{name: "Setting"},
				{name: "Value"},
			}, rows))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
