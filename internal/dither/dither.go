// Package dither aggregates the spectra of a three-exposure dither sequence
// into one catalog of sky samples. Each exposure shifts the fiber bundle by a
// fixed offset so the samples of all exposures interleave on the sky.
package dither

import (
	"fmt"

	"quicklook/internal/calib"
	"quicklook/internal/extract"
	"quicklook/internal/services"
)

// Offset is the sky displacement of one exposure relative to the first.
type Offset struct {
	DX float64
	DY float64
}

// offsets is the instrument's fixed three-point dither pattern.
var offsets = []Offset{
	{0, 0},
	{1.27, -0.73},
	{1.27, 0.73},
}

// Pattern returns the dither pattern offsets in exposure order.
func Pattern() []Offset {
	out := make([]Offset, len(offsets))
	copy(out, offsets)
	return out
}

// OffsetFor returns the sky offset of the zero-based exposure index. Indexes
// past the pattern are rejected so a directory with stray extra exposures
// fails loudly instead of reading past the table.
func OffsetFor(exposure int) (Offset, error) {
	if exposure < 0 || exposure >= len(offsets) {
		return Offset{}, services.Wrap(services.ErrValidation, "dither", "offset",
			fmt.Sprintf("exposure index %d outside the %d-point dither pattern", exposure, len(offsets)), nil)
	}
	return offsets[exposure], nil
}

// Sample is one fiber's sky position and rectified spectra for one exposure.
type Sample struct {
	X        float64
	Y        float64
	Slot     string
	Amp      string
	Fiber    int
	Exposure int
	Science  []float64
	Twilight []float64
}

// Catalog accumulates samples across slots, amplifiers, and exposures. All
// spectra share the same wavelength grid.
type Catalog struct {
	Grid    extract.Grid
	Samples []Sample
}

// NewCatalog returns an empty catalog on the given grid.
func NewCatalog(grid extract.Grid) *Catalog {
	return &Catalog{Grid: grid}
}

// Add appends every fiber of one extracted (slot, amp, exposure) unit,
// displacing the calibration fiber positions by the exposure's dither offset.
// Fibers skipped during extraction keep their zero rows so downstream
// normalization sees a rectangular catalog.
func (c *Catalog) Add(exposure int, rec *calib.Record, res *extract.Result) error {
	off, err := OffsetFor(exposure)
	if err != nil {
		return err
	}
	if len(res.Science) != rec.Fibers() || len(res.Twilight) != rec.Fibers() {
		return services.Wrap(services.ErrValidation, "dither", "add",
			fmt.Sprintf("%s%s exposure %d: %d extracted rows for %d fibers",
				rec.Slot, rec.Amp, exposure, len(res.Science), rec.Fibers()), nil)
	}
	for fiber, pos := range rec.FiberPositions {
		if len(res.Science[fiber]) != c.Grid.N || len(res.Twilight[fiber]) != c.Grid.N {
			return services.Wrap(services.ErrValidation, "dither", "add",
				fmt.Sprintf("%s%s fiber %d spectrum length %d, grid has %d bins",
					rec.Slot, rec.Amp, fiber, len(res.Science[fiber]), c.Grid.N), nil)
		}
		c.Samples = append(c.Samples, Sample{
			X:        pos.X + off.DX,
			Y:        pos.Y + off.DY,
			Slot:     rec.Slot,
			Amp:      rec.Amp,
			Fiber:    fiber,
			Exposure: exposure,
			Science:  res.Science[fiber],
			Twilight: res.Twilight[fiber],
		})
	}
	return nil
}

// Len returns the number of samples collected.
func (c *Catalog) Len() int {
	return len(c.Samples)
}

// ScienceRows returns the science spectra as a matrix view, one row per
// sample. Rows alias the catalog, so in-place normalization writes through.
func (c *Catalog) ScienceRows() [][]float64 {
	out := make([][]float64, len(c.Samples))
	for i := range c.Samples {
		out[i] = c.Samples[i].Science
	}
	return out
}

// TwilightRows returns the twilight spectra as a matrix view, one row per
// sample, aliasing the catalog.
func (c *Catalog) TwilightRows() [][]float64 {
	out := make([][]float64, len(c.Samples))
	for i := range c.Samples {
		out[i] = c.Samples[i].Twilight
	}
	return out
}

// Positions returns the sample sky coordinates as parallel x and y slices.
func (c *Catalog) Positions() (xs, ys []float64) {
	xs = make([]float64, len(c.Samples))
	ys = make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		xs[i] = s.X
		ys[i] = s.Y
	}
	return xs, ys
}
