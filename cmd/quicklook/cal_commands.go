package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"quicklook/internal/calib"
	"quicklook/internal/frame"
)

func newCalCommand(ctx *commandContext) *cobra.Command {
	calCmd := &cobra.Command{
		Use:   "cal",
		Short: "Calibration store utilities",
	}

	calCmd.AddCommand(newCalListCommand(ctx))
	calCmd.AddCommand(newCalImportCommand(ctx))

	return calCmd
}

func newCalListCommand(ctx *commandContext) *cobra.Command {
	var slotFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calibration records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := calib.Open(cfg.Paths.CalibrationDB)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Records(cmd.Context(), slotFlag)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				bias := "none"
				switch {
				case rec.Bias.Frame != nil:
					bias = fmt.Sprintf("frame %dx%d", rec.Bias.Frame.Rows, rec.Bias.Frame.Cols)
				case rec.Bias.Scalar != 0:
					bias = fmt.Sprintf("scalar %.3f", rec.Bias.Scalar)
				}
				rows = append(rows, []string{
					rec.Slot,
					rec.Amp,
					strconv.Itoa(rec.Fibers()),
					strconv.Itoa(rec.Columns()),
					bias,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{name: "Slot"},
				{name: "Amp"},
				{name: "Fibers", numeric: true},
				{name: "Columns", numeric: true},
				{name: "Bias"},
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&slotFlag, "slot", "s", "", "Restrict to one IFU slot")
	return cmd
}

// calRecordFile is the JSON interchange format for calibration records: one
// array of records, each with fiber positions and per-fiber wavelength and
// trace tables.
type calRecordFile struct {
	Records []calRecordJSON `json:"records"`
}

type calRecordJSON struct {
	Slot       string       `json:"slot"`
	Amp        string       `json:"amp"`
	Positions  [][2]float64 `json:"positions"`
	Wavelength [][]float64  `json:"wavelength"`
	Trace      [][]float64  `json:"trace"`
	BiasScalar float64      `json:"bias_scalar,omitempty"`
	BiasRows   int          `json:"bias_rows,omitempty"`
	BiasCols   int          `json:"bias_cols,omitempty"`
	Bias       []float64    `json:"bias,omitempty"`
}

func newCalImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import calibration records from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read calibration file: %w", err)
			}
			var file calRecordFile
			if err := json.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse calibration file: %w", err)
			}
			if len(file.Records) == 0 {
				return fmt.Errorf("no records in %s", args[0])
			}

			store, err := calib.Open(cfg.Paths.CalibrationDB)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, in := range file.Records {
				rec, err := recordFromJSON(in)
				if err != nil {
					return err
				}
				if err := store.Put(cmd.Context(), rec); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d calibration records into %s\n",
				len(file.Records), store.Path())
			return nil
		},
	}
	return cmd
}

func recordFromJSON(in calRecordJSON) (*calib.Record, error) {
	rec := &calib.Record{
		Slot:           in.Slot,
		Amp:            in.Amp,
		FiberPositions: make([]calib.Position, len(in.Positions)),
		Wavelength:     in.Wavelength,
		Trace:          in.Trace,
	}
	for i, p := range in.Positions {
		rec.FiberPositions[i] = calib.Position{X: p[0], Y: p[1]}
	}

	switch {
	case len(in.Bias) > 0:
		if in.BiasRows*in.BiasCols != len(in.Bias) {
			return nil, fmt.Errorf("record %s%s: bias has %d values for %dx%d",
				in.Slot, in.Amp, len(in.Bias), in.BiasRows, in.BiasCols)
		}
		f := frame.New(in.BiasRows, in.BiasCols)
		copy(f.Data, in.Bias)
		rec.Bias = calib.Bias{Frame: f}
	case in.BiasScalar != 0:
		rec.Bias = calib.Bias{Scalar: in.BiasScalar}
	}
	return rec, nil
}
