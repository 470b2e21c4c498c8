package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"quicklook/internal/calib"
	"quicklook/internal/pipeline"
)

func newReduceCommand(ctx *commandContext) *cobra.Command {
	var (
		dateFlag    string
		obsFlag     int
		slotFlag    string
		channelFlag string
	)

	cmd := &cobra.Command{
		Use:   "reduce",
		Short: "Reduce one night's dither sequence to a sky image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(dateFlag) != "" {
				cfg.Observation.Date = strings.TrimSpace(dateFlag)
			}
			if obsFlag > 0 {
				cfg.Observation.ObservationID = obsFlag
			}
			if strings.TrimSpace(slotFlag) != "" {
				cfg.Observation.Slot = strings.TrimSpace(slotFlag)
			}
			if strings.TrimSpace(channelFlag) != "" {
				cfg.Reduction.Channel = strings.ToLower(strings.TrimSpace(channelFlag))
			}
			if cfg.Observation.Date == "" {
				return fmt.Errorf("observation date is required (set --date or observation.date in the config)")
			}
			if cfg.Observation.ObservationID <= 0 {
				return fmt.Errorf("observation id is required (set --observation or observation.observation_id in the config)")
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			store, err := calib.Open(cfg.Paths.CalibrationDB)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := pipeline.New(cfg, store, logger)
			if err != nil {
				return err
			}
			summary, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			channel := cases.Title(language.Und).String(cfg.Reduction.Channel)
			fmt.Fprintf(out, "%s channel, %s observation %d\n",
				channel, cfg.Observation.Date, cfg.Observation.ObservationID)

			rows := make([][]string, 0, len(summary.Units))
			for _, u := range summary.Units {
				rows = append(rows, []string{
					u.Slot + u.Amp,
					strconv.Itoa(u.Fibers),
					strconv.Itoa(u.Skipped),
					strconv.Itoa(u.Exposures),
					u.CalDate,
					strconv.Itoa(u.CalSteps),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{name: "Unit"},
				{name: "Fibers", numeric: true},
				{name: "Skipped", numeric: true},
				{name: "Exposures", numeric: true},
				{name: "Cal Date"},
				{name: "Lookback", numeric: true},
			}, rows))

			fmt.Fprintf(out, "%d sky samples\n", summary.Samples)
			for _, path := range summary.Outputs {
				fmt.Fprintf(out, "wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Observation night (YYYYMMDD)")
	cmd.Flags().IntVarP(&obsFlag, "observation", "o", 0, "Observation ID")
	cmd.Flags().StringVarP(&slotFlag, "slot", "s", "", "Reduce a single IFU slot")
	cmd.Flags().StringVar(&channelFlag, "channel", "", "Spectrograph channel (blue, green, red)")
	return cmd
}
