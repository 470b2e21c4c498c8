package calib

import (
	"fmt"

	"quicklook/internal/frame"
)

// Position is a fiber's nominal sky-plane coordinate.
type Position struct {
	X float64
	Y float64
}

// Bias is the optional master bias subtracted from every preprocessed frame
// of a slot. The zero value means "no bias" and subtracts nothing. When Frame
// is nil the Scalar level applies uniformly.
type Bias struct {
	Frame  *frame.Frame
	Scalar float64
}

// IsZero reports whether the bias subtracts nothing.
func (b Bias) IsZero() bool {
	return b.Frame == nil && b.Scalar == 0
}

// Apply subtracts the bias from img in place.
func (b Bias) Apply(img *frame.Frame) error {
	if b.Frame != nil {
		if err := img.Sub(b.Frame); err != nil {
			return fmt.Errorf("calib: bias %w", err)
		}
		return nil
	}
	if b.Scalar != 0 {
		img.AddScalar(-b.Scalar)
	}
	return nil
}

// Record holds the calibration data for one (slot, amplifier) readout unit.
type Record struct {
	Slot string
	Amp  string

	// FiberPositions is each fiber's nominal sky position; its length fixes
	// the fiber count for wavelength and trace.
	FiberPositions []Position

	// Wavelength is the native wavelength solution, one row per fiber, one
	// value per detector column.
	Wavelength [][]float64

	// Trace is the fractional detector row of each fiber's spectrum, one row
	// per fiber, one value per detector column.
	Trace [][]float64

	Bias Bias
}

// Fibers returns the record's fiber count.
func (r *Record) Fibers() int {
	return len(r.FiberPositions)
}

// Columns returns the detector column count covered by the trace table, or
// zero for an empty record.
func (r *Record) Columns() int {
	if len(r.Trace) == 0 {
		return 0
	}
	return len(r.Trace[0])
}

// Validate checks internal consistency: equal fiber counts across tables and
// equal column counts across fibers.
func (r *Record) Validate() error {
	if r.Slot == "" || r.Amp == "" {
		return fmt.Errorf("calib: record needs slot and amp, got %q/%q", r.Slot, r.Amp)
	}
	n := r.Fibers()
	if n == 0 {
		return fmt.Errorf("calib: record %s%s has no fibers", r.Slot, r.Amp)
	}
	if len(r.Wavelength) != n || len(r.Trace) != n {
		return fmt.Errorf("calib: record %s%s fiber count mismatch: %d positions, %d wavelength rows, %d trace rows",
			r.Slot, r.Amp, n, len(r.Wavelength), len(r.Trace))
	}
	cols := r.Columns()
	if cols == 0 {
		return fmt.Errorf("calib: record %s%s has no columns", r.Slot, r.Amp)
	}
	for i := 0; i < n; i++ {
		if len(r.Wavelength[i]) != cols || len(r.Trace[i]) != cols {
			return fmt.Errorf("calib: record %s%s fiber %d column count mismatch", r.Slot, r.Amp, i)
		}
	}
	return nil
}
