package extract

import (
	"fmt"
	"math"

	"quicklook/internal/services"
)

// Grid is the common wavelength grid every fiber spectrum is resampled onto.
type Grid struct {
	Start float64
	Step  float64
	N     int
}

// NewGrid builds a half-open grid over [start, end) with the given step;
// end itself is never a bin.
func NewGrid(start, end, step float64) (Grid, error) {
	if step <= 0 || end <= start {
		return Grid{}, services.Wrap(services.ErrValidation, "extract", "grid",
			fmt.Sprintf("invalid wavelength grid [%g, %g) step %g", start, end, step), nil)
	}
	n := int(math.Ceil((end - start) / step))
	return Grid{Start: start, Step: step, N: n}, nil
}

// Wavelength returns the wavelength of bin i.
func (g Grid) Wavelength(i int) float64 {
	return g.Start + float64(i)*g.Step
}

// End returns the wavelength of the last bin.
func (g Grid) End() float64 {
	return g.Wavelength(g.N - 1)
}

// Values materializes the grid as a slice.
func (g Grid) Values() []float64 {
	out := make([]float64, g.N)
	for i := range out {
		out[i] = g.Wavelength(i)
	}
	return out
}

// Bin returns the index of the first bin at or above w, clamped to [0, N].
// Useful for selecting the bins inside a wavelength band.
func (g Grid) Bin(w float64) int {
	if w <= g.Start {
		return 0
	}
	i := int(math.Ceil((w - g.Start) / g.Step))
	if i > g.N {
		return g.N
	}
	return i
}
